package selection

import (
	"time"

	"github.com/google/uuid"

	"marketplace-backend/internal/features/giveaway/models"
)

// AssignWinners walks prizes in ascending position order and pulls up to the
// requested winner count for each from the front of the ranked sequence.
// A participant wins at most once per giveaway: the used set spans all
// prizes. When the pool runs out a prize keeps whatever it got and later
// prizes simply receive none.
//
// Prizes that already carry a legacy winner are skipped unless overwrite is
// set. The caller is responsible for passing prizes sorted by position.
func AssignWinners(prizes []models.Prize, ranked []models.Entry, overwrite bool) []models.WinnerAssignment {
	var assignments []models.WinnerAssignment
	used := make(map[int64]bool, len(ranked))
	cursor := 0
	now := time.Now().UTC()

	for _, prize := range prizes {
		if prize.WinnerID != nil && !overwrite {
			continue
		}

		needed := prize.RequestedWinners()
		for needed > 0 && cursor < len(ranked) {
			entry := ranked[cursor]
			cursor++
			if used[entry.ParticipantID] {
				continue
			}
			used[entry.ParticipantID] = true

			assignments = append(assignments, models.WinnerAssignment{
				ID:            uuid.New().String(),
				GiveawayID:    entry.GiveawayID,
				PrizeID:       prize.ID,
				Position:      prize.Position,
				ParticipantID: entry.ParticipantID,
				Username:      entry.Username,
				CreatedAt:     now,
			})
			needed--
		}
	}

	return assignments
}
