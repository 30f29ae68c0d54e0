// Package memory provides an in-process Store used by tests and local
// development. It reproduces the same guarantees as the SQL store,
// including the winner-set marker that makes PersistWinners first-wins.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"marketplace-backend/internal/features/giveaway/models"
	"marketplace-backend/internal/features/giveaway/repository"
)

type Repository struct {
	mu         sync.Mutex
	giveaways  map[string]models.Giveaway
	prizes     map[string][]models.Prize            // by giveaway id
	entries    map[string][]models.Entry            // by giveaway id
	winners    map[string][]models.WinnerAssignment // by giveaway id
	winnerSets map[string]bool                      // giveaway ids with a recorded set
}

func New() *Repository {
	return &Repository{
		giveaways:  make(map[string]models.Giveaway),
		prizes:     make(map[string][]models.Prize),
		entries:    make(map[string][]models.Entry),
		winners:    make(map[string][]models.WinnerAssignment),
		winnerSets: make(map[string]bool),
	}
}

// PutGiveaway stores or replaces a giveaway.
func (r *Repository) PutGiveaway(g models.Giveaway) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.giveaways[g.ID] = g
}

// PutPrize appends a prize to its giveaway.
func (r *Repository) PutPrize(p models.Prize) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prizes[p.GiveawayID] = append(r.prizes[p.GiveawayID], p)
}

// PutEntry appends an entry to its giveaway.
func (r *Repository) PutEntry(e models.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.GiveawayID] = append(r.entries[e.GiveawayID], e)
}

func (r *Repository) GetGiveaway(ctx context.Context, id string) (*models.Giveaway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.giveaways[id]
	if !ok {
		return nil, repository.ErrGiveawayNotFound
	}
	return &g, nil
}

func (r *Repository) GetPrizes(ctx context.Context, giveawayID string) ([]models.Prize, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Prize, len(r.prizes[giveawayID]))
	copy(out, r.prizes[giveawayID])
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *Repository) GetActiveEntries(ctx context.Context, giveawayID string) ([]models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Entry
	for _, e := range r.entries[giveawayID] {
		if e.Status == models.EntryStatusActive {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *Repository) HasWinners(ctx context.Context, prizeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, set := range r.winners {
		for _, w := range set {
			if w.PrizeID == prizeID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *Repository) PersistWinners(ctx context.Context, giveawayID string, assignments []models.WinnerAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.winnerSets[giveawayID] {
		return repository.ErrWinnersConflict
	}
	r.winnerSets[giveawayID] = true
	set := make([]models.WinnerAssignment, len(assignments))
	copy(set, assignments)
	r.winners[giveawayID] = set

	// Mirror the legacy single-winner field on each prize.
	for _, a := range assignments {
		prizes := r.prizes[giveawayID]
		for i := range prizes {
			if prizes[i].ID == a.PrizeID && prizes[i].WinnerID == nil {
				id := a.ParticipantID
				prizes[i].WinnerID = &id
			}
		}
	}
	return nil
}

func (r *Repository) SetGiveawayStatus(ctx context.Context, id string, status models.GiveawayStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.giveaways[id]
	if !ok {
		return repository.ErrGiveawayNotFound
	}
	g.Status = status
	g.UpdatedAt = time.Now().UTC()
	r.giveaways[id] = g
	return nil
}

func (r *Repository) GetWinners(ctx context.Context, giveawayID string) ([]models.WinnerAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.WinnerAssignment, len(r.winners[giveawayID]))
	copy(out, r.winners[giveawayID])
	return out, nil
}

func (r *Repository) ListDue(ctx context.Context, now time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id, g := range r.giveaways {
		if g.Status == models.GiveawayStatusActive && g.AutoAnnounce && !g.EndsAt.After(now) && !r.winnerSets[id] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
