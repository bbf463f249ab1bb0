package models

import (
	"time"

	"github.com/google/uuid"
)

// DailyCount is one user's counter for one calendar day.
// The (UserID, Day) pair is unique; Day is always midnight IST.
type DailyCount struct {
	UserID    uuid.UUID `json:"user_id"`
	Day       time.Time `json:"day"`
	Count     int       `json:"count"`
	IsActive  bool      `json:"is_active"`
	UpdatedAt time.Time `json:"updated_at"`
}
