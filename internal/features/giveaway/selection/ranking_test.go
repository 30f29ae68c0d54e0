package selection

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-backend/internal/features/giveaway/models"
)

func entry(participantID int64, points int) models.Entry {
	return models.Entry{
		GiveawayID:    "g1",
		ParticipantID: participantID,
		Username:      fmt.Sprintf("user_%d", participantID),
		Status:        models.EntryStatusActive,
		Points:        points,
	}
}

func TestRankEmpty(t *testing.T) {
	ranked, err := Rank(nil)
	require.NoError(t, err)
	assert.Empty(t, ranked)
}

func TestRankPreservesLength(t *testing.T) {
	entries := []models.Entry{
		entry(1, 10), entry(2, 30), entry(3, 10), entry(4, 0), entry(5, 30),
	}
	ranked, err := Rank(entries)
	require.NoError(t, err)
	require.Len(t, ranked, len(entries))

	seen := make(map[int64]bool)
	for _, e := range ranked {
		assert.False(t, seen[e.ParticipantID], "participant %d duplicated", e.ParticipantID)
		seen[e.ParticipantID] = true
	}
}

func TestRankOrdersByPointsDescending(t *testing.T) {
	entries := []models.Entry{
		entry(1, 5), entry(2, 50), entry(3, 20), entry(4, 50), entry(5, 0),
	}
	ranked, err := Rank(entries)
	require.NoError(t, err)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Points, ranked[i].Points)
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	entries := []models.Entry{entry(1, 1), entry(2, 2), entry(3, 3)}
	_, err := Rank(entries)
	require.NoError(t, err)
	assert.Equal(t, int64(1), entries[0].ParticipantID)
	assert.Equal(t, int64(2), entries[1].ParticipantID)
	assert.Equal(t, int64(3), entries[2].ParticipantID)
}

// Every permutation of a tie group must be reachable: over enough runs a
// three-way tie should produce all six orderings.
func TestRankShufflesTieGroups(t *testing.T) {
	entries := []models.Entry{
		entry(1, 100), entry(2, 10), entry(3, 10), entry(4, 10), entry(5, 1),
	}

	permutations := make(map[string]bool)
	for i := 0; i < 600; i++ {
		ranked, err := Rank(entries)
		require.NoError(t, err)

		require.Equal(t, int64(1), ranked[0].ParticipantID)
		require.Equal(t, int64(5), ranked[4].ParticipantID)

		key := fmt.Sprintf("%d-%d-%d", ranked[1].ParticipantID, ranked[2].ParticipantID, ranked[3].ParticipantID)
		permutations[key] = true
	}

	assert.Len(t, permutations, 6, "expected all permutations of the tie group to appear")
}
