package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-backend/internal/features/giveaway/models"
	"marketplace-backend/internal/features/giveaway/repository/memory"
	"marketplace-backend/internal/features/giveaway/selection"
	redisplatform "marketplace-backend/internal/platform/redis"
)

type stubLocker struct {
	locked   bool
	acquired []string
}

func (l *stubLocker) AcquireLock(ctx context.Context, key string, ttl time.Duration) error {
	if l.locked {
		return redisplatform.ErrAlreadyLocked
	}
	l.acquired = append(l.acquired, key)
	return nil
}

func (l *stubLocker) ReleaseLock(ctx context.Context, key string) error { return nil }

func seedEndedGiveaway(repo *memory.Repository, id string) {
	repo.PutGiveaway(models.Giveaway{
		ID:           id,
		Title:        "Sweep Me",
		EndsAt:       time.Now().Add(-time.Minute),
		Status:       models.GiveawayStatusActive,
		AutoAnnounce: true,
	})
	repo.PutPrize(models.Prize{ID: id + "-p1", GiveawayID: id, Position: 1, Name: "Prize", WinnersCount: 1})
	repo.PutEntry(models.Entry{GiveawayID: id, ParticipantID: 1, Username: "alice", Status: models.EntryStatusActive, Points: 5})
}

func TestSweepSettlesDueGiveaways(t *testing.T) {
	repo := memory.New()
	seedEndedGiveaway(repo, "g1")
	seedEndedGiveaway(repo, "g2")
	sweeper := NewSweeper(repo, selection.NewSelector(repo, nil), nil, time.Second, time.Minute)

	require.NoError(t, sweeper.Sweep(context.Background()))

	for _, id := range []string{"g1", "g2"} {
		g, err := repo.GetGiveaway(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, models.GiveawayStatusEnded, g.Status)

		winners, err := repo.GetWinners(context.Background(), id)
		require.NoError(t, err)
		assert.Len(t, winners, 1)
	}

	// Settled giveaways drop out of the due list.
	due, err := repo.ListDue(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestSweepSkipsLockedGiveaway(t *testing.T) {
	repo := memory.New()
	seedEndedGiveaway(repo, "g1")
	locker := &stubLocker{locked: true}
	sweeper := NewSweeper(repo, selection.NewSelector(repo, nil), locker, time.Second, time.Minute)

	require.NoError(t, sweeper.Sweep(context.Background()))

	g, err := repo.GetGiveaway(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, models.GiveawayStatusActive, g.Status)
}

func TestSweepAcquiresAndUsesLock(t *testing.T) {
	repo := memory.New()
	seedEndedGiveaway(repo, "g1")
	locker := &stubLocker{}
	sweeper := NewSweeper(repo, selection.NewSelector(repo, nil), locker, time.Second, time.Minute)

	require.NoError(t, sweeper.Sweep(context.Background()))

	assert.Equal(t, []string{"lock:giveaway:g1"}, locker.acquired)
	g, err := repo.GetGiveaway(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, models.GiveawayStatusEnded, g.Status)
}

func TestStartStop(t *testing.T) {
	repo := memory.New()
	seedEndedGiveaway(repo, "g1")
	sweeper := NewSweeper(repo, selection.NewSelector(repo, nil), nil, 10*time.Millisecond, time.Minute)

	sweeper.Start()
	assert.Eventually(t, func() bool {
		g, err := repo.GetGiveaway(context.Background(), "g1")
		return err == nil && g.Status == models.GiveawayStatusEnded
	}, time.Second, 10*time.Millisecond)
	sweeper.Stop()
}
