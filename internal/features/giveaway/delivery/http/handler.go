package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	apperrors "marketplace-backend/internal/common/errors"
	"marketplace-backend/internal/common/middleware"
	"marketplace-backend/internal/features/giveaway/models"
	"marketplace-backend/internal/features/giveaway/repository"
	"marketplace-backend/internal/features/giveaway/selection"
)

const winnersCacheTTL = 24 * time.Hour

// Cache is the optional read-through cache for settled winner sets.
// A nil Cache disables caching.
type Cache interface {
	GetCached(ctx context.Context, key string) (string, error)
	SetCached(ctx context.Context, key, value string, ttl time.Duration) error
}

// GiveawayHandler exposes the selection trigger and read endpoints.
type GiveawayHandler struct {
	store    repository.Store
	selector *selection.Selector
	cache    Cache
}

func NewGiveawayHandler(store repository.Store, selector *selection.Selector, cache Cache) *GiveawayHandler {
	return &GiveawayHandler{store: store, selector: selector, cache: cache}
}

func (h *GiveawayHandler) RegisterRoutes(router *gin.RouterGroup) {
	giveaways := router.Group("/giveaways")
	{
		giveaways.GET("/:id", h.getByID)
		giveaways.GET("/:id/winners", h.getWinners)
		giveaways.POST("/:id/selection", h.runSelection)
	}
}

type runSelectionRequest struct {
	OverwriteExisting bool `json:"overwrite_existing"`
}

// runSelection is the manual trigger. The same operation also runs from the
// background sweeper and lazily from the winners poll; all three paths go
// through selection.Selector.Run and its idempotency guard.
func (h *GiveawayHandler) runSelection(c *gin.Context) {
	var input runSelectionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			middleware.RespondWithError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "Invalid request body"))
			return
		}
	}

	result, err := h.selector.Run(c.Request.Context(), c.Param("id"), selection.RunOptions{
		OverwriteExisting: input.OverwriteExisting,
	})
	if err != nil {
		middleware.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *GiveawayHandler) getByID(c *gin.Context) {
	giveaway, err := h.store.GetGiveaway(c.Request.Context(), c.Param("id"))
	if err != nil {
		if err == repository.ErrGiveawayNotFound {
			middleware.RespondWithError(c, apperrors.NewGiveawayNotFoundError(c.Param("id")))
			return
		}
		middleware.RespondWithError(c, apperrors.NewDatabaseError("load giveaway", err))
		return
	}
	c.JSON(http.StatusOK, giveaway)
}

type winnersResponse struct {
	GiveawayID string                    `json:"giveaway_id"`
	Outcome    selection.Outcome         `json:"outcome,omitempty"`
	Winners    []models.WinnerAssignment `json:"winners"`
}

// getWinners serves the client-side poll. When the giveaway has ended but is
// unprocessed it lazily triggers a selection run, so a polling client does
// not depend on the sweeper's tick. Settled winner sets are immutable and
// get cached.
func (h *GiveawayHandler) getWinners(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	cacheKey := fmt.Sprintf("giveaway:winners:%s", id)

	if h.cache != nil {
		if cached, err := h.cache.GetCached(ctx, cacheKey); err == nil && cached != "" {
			var resp winnersResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				c.JSON(http.StatusOK, resp)
				return
			}
		}
	}

	giveaway, err := h.store.GetGiveaway(ctx, id)
	if err != nil {
		if err == repository.ErrGiveawayNotFound {
			middleware.RespondWithError(c, apperrors.NewGiveawayNotFoundError(id))
			return
		}
		middleware.RespondWithError(c, apperrors.NewDatabaseError("load giveaway", err))
		return
	}

	resp := winnersResponse{GiveawayID: id}

	if giveaway.Status == models.GiveawayStatusActive && giveaway.AutoAnnounce {
		result, err := h.selector.Run(ctx, id, selection.RunOptions{})
		if err != nil {
			middleware.RespondWithError(c, err)
			return
		}
		resp.Outcome = result.Outcome
		if result.Outcome == selection.OutcomeNotEnded {
			resp.Winners = []models.WinnerAssignment{}
			c.JSON(http.StatusOK, resp)
			return
		}
	}

	winners, err := h.store.GetWinners(ctx, id)
	if err != nil {
		middleware.RespondWithError(c, apperrors.NewDatabaseError("load winners", err))
		return
	}
	if winners == nil {
		winners = []models.WinnerAssignment{}
	}
	resp.Winners = winners

	if h.cache != nil && len(winners) > 0 {
		// Cache the neutral view; the run outcome belongs to this request only.
		cached := winnersResponse{GiveawayID: id, Winners: winners}
		if payload, err := json.Marshal(cached); err == nil {
			if err := h.cache.SetCached(ctx, cacheKey, string(payload), winnersCacheTTL); err != nil {
				log.Warn().Err(err).Str("giveaway_id", id).Msg("Failed to cache winner set")
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}
