package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-backend/internal/features/giveaway/models"
	"marketplace-backend/internal/features/giveaway/repository"
)

func TestGetGiveawayNotFound(t *testing.T) {
	repo := New()
	_, err := repo.GetGiveaway(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrGiveawayNotFound)
}

func TestGetPrizesOrderedByPosition(t *testing.T) {
	repo := New()
	repo.PutPrize(models.Prize{ID: "p2", GiveawayID: "g1", Position: 2})
	repo.PutPrize(models.Prize{ID: "p1", GiveawayID: "g1", Position: 1})

	prizes, err := repo.GetPrizes(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, prizes, 2)
	assert.Equal(t, "p1", prizes[0].ID)
	assert.Equal(t, "p2", prizes[1].ID)
}

func TestGetActiveEntriesFiltersStatus(t *testing.T) {
	repo := New()
	repo.PutEntry(models.Entry{GiveawayID: "g1", ParticipantID: 1, Status: models.EntryStatusActive})
	repo.PutEntry(models.Entry{GiveawayID: "g1", ParticipantID: 2, Status: models.EntryStatusWithdrawn})
	repo.PutEntry(models.Entry{GiveawayID: "g1", ParticipantID: 3, Status: models.EntryStatusDisqualified})

	entries, err := repo.GetActiveEntries(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ParticipantID)
}

// PersistWinners is first-wins: under concurrent callers exactly one write
// succeeds and all others observe the conflict.
func TestPersistWinnersFirstWins(t *testing.T) {
	repo := New()
	repo.PutGiveaway(models.Giveaway{ID: "g1", Status: models.GiveawayStatusActive})
	repo.PutPrize(models.Prize{ID: "p1", GiveawayID: "g1", Position: 1})

	assignment := func(participant int64) []models.WinnerAssignment {
		return []models.WinnerAssignment{{
			ID:            "w1",
			GiveawayID:    "g1",
			PrizeID:       "p1",
			Position:      1,
			ParticipantID: participant,
			CreatedAt:     time.Now(),
		}}
	}

	const callers = 8
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.PersistWinners(context.Background(), "g1", assignment(int64(i+1)))
		}(i)
	}
	wg.Wait()

	conflicts := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, repository.ErrWinnersConflict)
			conflicts++
		}
	}
	assert.Equal(t, callers-1, conflicts)

	winners, err := repo.GetWinners(context.Background(), "g1")
	require.NoError(t, err)
	assert.Len(t, winners, 1)
}

func TestPersistWinnersMirrorsLegacyField(t *testing.T) {
	repo := New()
	repo.PutGiveaway(models.Giveaway{ID: "g1", Status: models.GiveawayStatusActive})
	repo.PutPrize(models.Prize{ID: "p1", GiveawayID: "g1", Position: 1})

	err := repo.PersistWinners(context.Background(), "g1", []models.WinnerAssignment{{
		ID: "w1", GiveawayID: "g1", PrizeID: "p1", Position: 1, ParticipantID: 42,
	}})
	require.NoError(t, err)

	prizes, err := repo.GetPrizes(context.Background(), "g1")
	require.NoError(t, err)
	require.NotNil(t, prizes[0].WinnerID)
	assert.Equal(t, int64(42), *prizes[0].WinnerID)
}

func TestListDue(t *testing.T) {
	repo := New()
	now := time.Now()
	repo.PutGiveaway(models.Giveaway{ID: "due", Status: models.GiveawayStatusActive, AutoAnnounce: true, EndsAt: now.Add(-time.Minute)})
	repo.PutGiveaway(models.Giveaway{ID: "future", Status: models.GiveawayStatusActive, AutoAnnounce: true, EndsAt: now.Add(time.Hour)})
	repo.PutGiveaway(models.Giveaway{ID: "manual", Status: models.GiveawayStatusActive, AutoAnnounce: false, EndsAt: now.Add(-time.Minute)})
	repo.PutGiveaway(models.Giveaway{ID: "cancelled", Status: models.GiveawayStatusCancelled, AutoAnnounce: true, EndsAt: now.Add(-time.Minute)})

	due, err := repo.ListDue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, []string{"due"}, due)
}
