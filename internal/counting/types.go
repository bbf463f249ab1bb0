package counting

import (
	"github.com/google/uuid"

	"github.com/countboard/countboard/internal/models"
)

// CounterStatus is the user-facing view of today's counter.
type CounterStatus struct {
	Count            int  `json:"count"`
	IsActive         bool `json:"isActive"`
	IsCountingClosed bool `json:"isCountingClosed"`
}

// UserTotal is one user's all-time count total.
type UserTotal struct {
	UserID uuid.UUID `json:"user_id"`
	Total  int       `json:"total"`
}

// UserHistory is the per-user counter history used by the admin console.
type UserHistory struct {
	Counts     []models.DailyCount `json:"counts"` // day descending
	TotalCount int                 `json:"totalCount"`
	DaysActive int                 `json:"daysActive"`
	LastCount  int                 `json:"lastCount"`
}
