package selection

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-backend/internal/features/giveaway/models"
)

func prize(id string, position, winnersCount int) models.Prize {
	return models.Prize{
		ID:           id,
		GiveawayID:   "g1",
		Position:     position,
		Name:         fmt.Sprintf("Prize %s", id),
		WinnersCount: winnersCount,
	}
}

func rankedEntries(n int) []models.Entry {
	out := make([]models.Entry, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, entry(int64(i), 100-i))
	}
	return out
}

func TestAssignOneWinnerPerPrize(t *testing.T) {
	prizes := []models.Prize{prize("p1", 1, 1), prize("p2", 2, 1)}
	assignments := AssignWinners(prizes, rankedEntries(5), false)

	require.Len(t, assignments, 2)
	assert.Equal(t, "p1", assignments[0].PrizeID)
	assert.Equal(t, 1, assignments[0].Position)
	assert.Equal(t, int64(1), assignments[0].ParticipantID)
	assert.Equal(t, "p2", assignments[1].PrizeID)
	assert.Equal(t, int64(2), assignments[1].ParticipantID)
}

func TestAssignMultiWinnerPrize(t *testing.T) {
	prizes := []models.Prize{prize("p1", 1, 3)}
	assignments := AssignWinners(prizes, rankedEntries(5), false)

	require.Len(t, assignments, 3)
	for i, a := range assignments {
		assert.Equal(t, int64(i+1), a.ParticipantID)
	}
}

func TestAssignGlobalUniqueness(t *testing.T) {
	prizes := []models.Prize{prize("p1", 1, 2), prize("p2", 2, 2), prize("p3", 3, 2)}
	assignments := AssignWinners(prizes, rankedEntries(10), false)

	require.Len(t, assignments, 6)
	seen := make(map[int64]bool)
	for _, a := range assignments {
		assert.False(t, seen[a.ParticipantID], "participant %d won twice", a.ParticipantID)
		seen[a.ParticipantID] = true
	}
}

func TestAssignPoolExhaustion(t *testing.T) {
	// Three participants for a prize requesting five: the prize gets three
	// and the later prize gets none, without error.
	prizes := []models.Prize{prize("p1", 1, 5), prize("p2", 2, 1)}
	assignments := AssignWinners(prizes, rankedEntries(3), false)

	require.Len(t, assignments, 3)
	for _, a := range assignments {
		assert.Equal(t, "p1", a.PrizeID)
	}
}

func TestAssignEmptyPool(t *testing.T) {
	prizes := []models.Prize{prize("p1", 1, 1)}
	assignments := AssignWinners(prizes, nil, false)
	assert.Empty(t, assignments)
}

func TestAssignSkipsAwardedPrize(t *testing.T) {
	existing := int64(99)
	awarded := prize("p1", 1, 1)
	awarded.WinnerID = &existing
	prizes := []models.Prize{awarded, prize("p2", 2, 1)}

	assignments := AssignWinners(prizes, rankedEntries(3), false)

	require.Len(t, assignments, 1)
	assert.Equal(t, "p2", assignments[0].PrizeID)
	assert.Equal(t, int64(1), assignments[0].ParticipantID)
}

func TestAssignOverwriteAwardedPrize(t *testing.T) {
	existing := int64(99)
	awarded := prize("p1", 1, 1)
	awarded.WinnerID = &existing
	prizes := []models.Prize{awarded, prize("p2", 2, 1)}

	assignments := AssignWinners(prizes, rankedEntries(3), true)

	require.Len(t, assignments, 2)
	assert.Equal(t, "p1", assignments[0].PrizeID)
}

func TestAssignDefaultsWinnersCountToOne(t *testing.T) {
	prizes := []models.Prize{prize("p1", 1, 0)}
	assignments := AssignWinners(prizes, rankedEntries(3), false)
	require.Len(t, assignments, 1)
}

func TestAssignSnapshotsUsername(t *testing.T) {
	prizes := []models.Prize{prize("p1", 1, 1)}
	assignments := AssignWinners(prizes, rankedEntries(1), false)
	require.Len(t, assignments, 1)
	assert.Equal(t, "user_1", assignments[0].Username)
	assert.NotEmpty(t, assignments[0].ID)
	assert.False(t, assignments[0].Claimed)
}
