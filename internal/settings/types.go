package settings

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/countboard/countboard/internal/models"
)

// Default threshold hours used when a setting is absent or malformed.
const (
	DefaultResultTime = 20 // leaderboard reveals at 8 PM IST
	NeverCloses       = 24 // counting_closed_time sentinel: counting never locks
)

// UpsertSettingRequest creates or overwrites a setting.
type UpsertSettingRequest struct {
	Key         string             `json:"key"`
	Value       json.RawMessage    `json:"value"`
	Type        models.SettingType `json:"type"`
	Description string             `json:"description"`
	UpdatedBy   *uuid.UUID         `json:"updated_by,omitempty"`
}
