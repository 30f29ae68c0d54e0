package models

import "time"

// GiveawayStatus represents the lifecycle state of a giveaway.
type GiveawayStatus string

const (
	GiveawayStatusActive    GiveawayStatus = "active"
	GiveawayStatusEnded     GiveawayStatus = "ended"
	GiveawayStatusCancelled GiveawayStatus = "cancelled"
)

// Giveaway is a prize draw configured by a seller or admin.
type Giveaway struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	EndsAt       time.Time      `json:"ends_at"`
	Status       GiveawayStatus `json:"status"`
	AutoAnnounce bool           `json:"auto_announce"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// HasEnded reports whether the end timestamp has passed.
func (g *Giveaway) HasEnded(now time.Time) bool {
	return !g.EndsAt.After(now)
}
