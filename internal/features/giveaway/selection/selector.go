package selection

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"marketplace-backend/internal/common/errors"
	"marketplace-backend/internal/features/giveaway/models"
	"marketplace-backend/internal/features/giveaway/repository"
)

// Outcome classifies the result of a selection run.
type Outcome string

const (
	OutcomeSuccess           Outcome = "success"
	OutcomeAlreadyProcessed  Outcome = "already_processed"
	OutcomeNoEligibleWinners Outcome = "no_eligible_winners"
	OutcomeNotEnded          Outcome = "not_ended"
)

// Result is what a trigger gets back from Run. Assignments is populated only
// on OutcomeSuccess.
type Result struct {
	Outcome     Outcome                   `json:"outcome"`
	Reason      string                    `json:"reason,omitempty"`
	GiveawayID  string                    `json:"giveaway_id"`
	Title       string                    `json:"title"`
	Assignments []models.WinnerAssignment `json:"assignments,omitempty"`
}

// Summary is the structured hand-off to the notification boundary.
type Summary struct {
	GiveawayID string          `json:"giveaway_id"`
	Title      string          `json:"title"`
	Winners    []SummaryWinner `json:"winners"`
}

// SummaryWinner is one assignment in a Summary.
type SummaryWinner struct {
	Position   int    `json:"position"`
	Username   string `json:"username"`
	PrizeName  string `json:"prize_name"`
	PrizeValue string `json:"prize_value"`
}

// Notifier receives the summary of a settled giveaway. Delivery is
// best-effort: a failure is logged and never fails the run.
type Notifier interface {
	GiveawaySettled(ctx context.Context, summary Summary) error
}

// RunOptions tunes a single selection run.
type RunOptions struct {
	// OverwriteExisting reassigns prizes that already carry a legacy winner.
	OverwriteExisting bool
}

// Selector orchestrates winner selection for a giveaway: it checks the
// idempotency guard, ranks entries, assigns winners, persists the set and
// hands the summary to the notifier. Run is safe to call any number of
// times from any number of concurrent triggers; at most one call ever
// persists winners for a given giveaway.
type Selector struct {
	store    repository.Store
	notifier Notifier
}

// NewSelector creates a Selector. The notifier may be nil.
func NewSelector(store repository.Store, notifier Notifier) *Selector {
	return &Selector{store: store, notifier: notifier}
}

// Run executes a selection run for one giveaway. It returns a typed error
// for precondition failures (giveaway missing, no prizes, auto-announce off)
// without touching the store; every other path yields a Result.
func (s *Selector) Run(ctx context.Context, giveawayID string, opts RunOptions) (*Result, error) {
	giveaway, err := s.store.GetGiveaway(ctx, giveawayID)
	if err != nil {
		if stderrors.Is(err, repository.ErrGiveawayNotFound) {
			return nil, errors.NewGiveawayNotFoundError(giveawayID)
		}
		return nil, errors.NewDatabaseError("load giveaway", err)
	}

	prizes, err := s.store.GetPrizes(ctx, giveawayID)
	if err != nil {
		return nil, errors.NewDatabaseError("load prizes", err)
	}
	if len(prizes) == 0 {
		return nil, errors.New(errors.ErrCodeNoPrizesConfigured,
			fmt.Sprintf("Giveaway %s has no prizes configured", giveawayID))
	}

	// Cheap guard before any ranking work: one winner record on the first
	// prize means a previous run already settled this giveaway.
	processed, err := s.store.HasWinners(ctx, prizes[0].ID)
	if err != nil {
		return nil, errors.NewDatabaseError("probe existing winners", err)
	}
	if processed {
		return &Result{
			Outcome:    OutcomeAlreadyProcessed,
			GiveawayID: giveaway.ID,
			Title:      giveaway.Title,
		}, nil
	}

	if giveaway.Status != models.GiveawayStatusActive {
		return &Result{
			Outcome:    OutcomeNotEnded,
			Reason:     "giveaway not active",
			GiveawayID: giveaway.ID,
			Title:      giveaway.Title,
		}, nil
	}
	if !giveaway.HasEnded(time.Now()) {
		return &Result{
			Outcome:    OutcomeNotEnded,
			Reason:     "giveaway has not ended yet",
			GiveawayID: giveaway.ID,
			Title:      giveaway.Title,
		}, nil
	}

	if !giveaway.AutoAnnounce {
		return nil, errors.New(errors.ErrCodeAutoAnnounceDisabled,
			fmt.Sprintf("Giveaway %s has automatic winner announcement disabled", giveawayID))
	}

	entries, err := s.store.GetActiveEntries(ctx, giveawayID)
	if err != nil {
		return nil, errors.NewDatabaseError("load entries", err)
	}
	if len(entries) == 0 {
		return &Result{
			Outcome:    OutcomeNoEligibleWinners,
			Reason:     "no active entries",
			GiveawayID: giveaway.ID,
			Title:      giveaway.Title,
		}, nil
	}

	ranked, err := Rank(entries)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "Failed to rank entries")
	}

	assignments := AssignWinners(prizes, ranked, opts.OverwriteExisting)
	if len(assignments) == 0 {
		return &Result{
			Outcome:    OutcomeNoEligibleWinners,
			Reason:     "no assignable prizes",
			GiveawayID: giveaway.ID,
			Title:      giveaway.Title,
		}, nil
	}

	if err := s.store.PersistWinners(ctx, giveawayID, assignments); err != nil {
		if stderrors.Is(err, repository.ErrWinnersConflict) {
			// A concurrent run won the race; its winner set stands.
			log.Info().
				Str("giveaway_id", giveawayID).
				Msg("Winner set already recorded by concurrent run")
			return &Result{
				Outcome:    OutcomeAlreadyProcessed,
				GiveawayID: giveaway.ID,
				Title:      giveaway.Title,
			}, nil
		}
		return nil, errors.NewDatabaseError("persist winners", err)
	}

	if err := s.store.SetGiveawayStatus(ctx, giveawayID, models.GiveawayStatusEnded); err != nil {
		return nil, errors.NewDatabaseError("update giveaway status", err)
	}

	s.notify(ctx, giveaway, prizes, assignments)

	log.Info().
		Str("giveaway_id", giveawayID).
		Int("winners", len(assignments)).
		Msg("Giveaway settled")

	return &Result{
		Outcome:     OutcomeSuccess,
		GiveawayID:  giveaway.ID,
		Title:       giveaway.Title,
		Assignments: assignments,
	}, nil
}

func (s *Selector) notify(ctx context.Context, giveaway *models.Giveaway, prizes []models.Prize, assignments []models.WinnerAssignment) {
	if s.notifier == nil {
		return
	}

	prizeByID := make(map[string]models.Prize, len(prizes))
	for _, p := range prizes {
		prizeByID[p.ID] = p
	}

	summary := Summary{
		GiveawayID: giveaway.ID,
		Title:      giveaway.Title,
		Winners:    make([]SummaryWinner, 0, len(assignments)),
	}
	for _, a := range assignments {
		prize := prizeByID[a.PrizeID]
		summary.Winners = append(summary.Winners, SummaryWinner{
			Position:   a.Position,
			Username:   a.Username,
			PrizeName:  prize.Name,
			PrizeValue: prize.Value,
		})
	}

	if err := s.notifier.GiveawaySettled(ctx, summary); err != nil {
		log.Error().
			Err(err).
			Str("giveaway_id", giveaway.ID).
			Msg("Failed to deliver winner announcement")
	}
}
