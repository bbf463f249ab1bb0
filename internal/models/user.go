package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered counter user
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}
