package models

// EntryStatus represents the participation state of an entry.
type EntryStatus string

const (
	EntryStatusActive       EntryStatus = "active"
	EntryStatusWithdrawn    EntryStatus = "withdrawn"
	EntryStatusDisqualified EntryStatus = "disqualified"
)

// Entry is one participant's stake in a giveaway. At most one active entry
// exists per (giveaway, participant) pair; the store enforces that.
type Entry struct {
	GiveawayID    string      `json:"giveaway_id"`
	ParticipantID int64       `json:"participant_id"`
	Username      string      `json:"username"`
	Status        EntryStatus `json:"status"`
	// Points accumulated from completed requirements, never negative.
	Points int `json:"points"`
}
