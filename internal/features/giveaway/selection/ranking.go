package selection

import (
	"sort"

	"marketplace-backend/internal/features/giveaway/models"
	"marketplace-backend/internal/utils/random"
)

// Rank orders entries by points descending and shuffles each group of
// entries with equal points independently, so ties are broken uniformly at
// random on every call. Callers must pass active entries only; Rank does not
// filter by status. An empty input yields an empty (nil) result.
//
// The shuffle runs per tie group rather than sorting against random keys,
// which can bias under unstable sorts.
func Rank(entries []models.Entry) ([]models.Entry, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	ranked := make([]models.Entry, len(entries))
	copy(ranked, entries)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Points > ranked[j].Points
	})

	// Walk tie groups and shuffle each one in place.
	start := 0
	for i := 1; i <= len(ranked); i++ {
		if i == len(ranked) || ranked[i].Points != ranked[start].Points {
			if i-start > 1 {
				if err := random.Shuffle(ranked[start:i]); err != nil {
					return nil, err
				}
			}
			start = i
		}
	}

	return ranked, nil
}
