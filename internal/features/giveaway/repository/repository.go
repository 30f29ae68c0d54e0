package repository

import (
	"context"
	"errors"
	"time"

	"marketplace-backend/internal/features/giveaway/models"
)

var (
	// ErrGiveawayNotFound is returned when a giveaway id matches nothing.
	ErrGiveawayNotFound = errors.New("giveaway not found")
	// ErrWinnersConflict is returned by PersistWinners when another run
	// already recorded a winner set for the giveaway.
	ErrWinnersConflict = errors.New("winner set already recorded")
)

// Store is the persistence boundary for giveaway selection. Implementations
// must make PersistWinners atomic: either the whole winner set is recorded
// or, if a concurrent run won the race, the call fails with
// ErrWinnersConflict and leaves nothing behind.
type Store interface {
	GetGiveaway(ctx context.Context, id string) (*models.Giveaway, error)

	// GetPrizes returns the giveaway's prizes ordered by position ascending.
	GetPrizes(ctx context.Context, giveawayID string) ([]models.Prize, error)

	// GetActiveEntries returns entries with active status only, at most one
	// per participant.
	GetActiveEntries(ctx context.Context, giveawayID string) ([]models.Entry, error)

	// HasWinners reports whether any winner assignment exists for the prize.
	// Probing the first prize is enough to detect a processed giveaway
	// because winner sets are written transactionally per run.
	HasWinners(ctx context.Context, prizeID string) (bool, error)

	PersistWinners(ctx context.Context, giveawayID string, assignments []models.WinnerAssignment) error

	SetGiveawayStatus(ctx context.Context, id string, status models.GiveawayStatus) error

	GetWinners(ctx context.Context, giveawayID string) ([]models.WinnerAssignment, error)

	// ListDue returns ids of active, auto-announce giveaways whose end
	// timestamp has passed, for the background sweeper.
	ListDue(ctx context.Context, now time.Time) ([]string, error)
}
