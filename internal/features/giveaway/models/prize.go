package models

// Prize is a reward slot within a giveaway. Position doubles as display
// order and processing priority: lower positions are filled first.
type Prize struct {
	ID         string `json:"id"`
	GiveawayID string `json:"giveaway_id"`
	Position   int    `json:"position"`
	Name       string `json:"name"`
	Value      string `json:"value"`
	// WinnersCount is how many distinct winners this prize requests.
	WinnersCount int `json:"winners_count"`
	// WinnerID is the legacy single-winner field. A non-nil value marks the
	// prize as already awarded; selection skips it unless overwriting.
	WinnerID *int64 `json:"winner_id,omitempty"`
}

// RequestedWinners returns the winner count, defaulting to one.
func (p *Prize) RequestedWinners() int {
	if p.WinnersCount <= 0 {
		return 1
	}
	return p.WinnersCount
}
