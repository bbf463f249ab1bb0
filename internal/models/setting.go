package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SettingType describes how a setting value should be interpreted
type SettingType string

const (
	SettingTypeString  SettingType = "string"
	SettingTypeNumber  SettingType = "number"
	SettingTypeBoolean SettingType = "boolean"
	SettingTypeTime    SettingType = "time"
)

// Well-known setting keys
const (
	SettingResultTime         = "result_time"
	SettingCountingClosedTime = "counting_closed_time"
)

// Setting is a loosely typed configuration entry. Value holds raw JSON
// (string, number or boolean); typed coercion happens in the settings app.
type Setting struct {
	Key         string          `json:"key"`
	Value       json.RawMessage `json:"value"`
	Type        SettingType     `json:"type"`
	Description string          `json:"description"`
	UpdatedAt   time.Time       `json:"updated_at"`
	UpdatedBy   *uuid.UUID      `json:"updated_by,omitempty"`
}
