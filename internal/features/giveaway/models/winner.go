package models

import "time"

// WinnerAssignment links a prize to a winning participant. Username is a
// snapshot taken at assignment time so later profile edits do not alter
// historical winner records. Records are immutable once written except for
// the Claimed flag.
type WinnerAssignment struct {
	ID            string    `json:"id"`
	GiveawayID    string    `json:"giveaway_id"`
	PrizeID       string    `json:"prize_id"`
	Position      int       `json:"position"`
	ParticipantID int64     `json:"participant_id"`
	Username      string    `json:"username"`
	Claimed       bool      `json:"claimed"`
	CreatedAt     time.Time `json:"created_at"`
}
