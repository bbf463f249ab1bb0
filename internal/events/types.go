package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types published to the count event stream
const (
	TypeIncremented = "incremented"
	TypeSynced      = "synced"
	TypeToggled     = "toggled"
)

// CountEvent describes one mutation of a user's daily counter. It is what
// live dashboards consume.
type CountEvent struct {
	ID       uuid.UUID `json:"eventId"`
	Type     string    `json:"eventType"`
	UserID   uuid.UUID `json:"userId"`
	Day      string    `json:"day"` // YYYY-MM-DD, IST calendar day
	Count    int       `json:"count"`
	IsActive bool      `json:"isActive"`
	At       time.Time `json:"timestamp"`
}
