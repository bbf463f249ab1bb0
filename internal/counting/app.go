package counting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/countboard/countboard/internal/events"
	"github.com/countboard/countboard/internal/models"
	"github.com/countboard/countboard/internal/timegate"
)

// CountersRepository defines what the app layer needs from the repository
type CountersRepository interface {
	EnsureCounter(ctx context.Context, userID uuid.UUID, day time.Time) (*models.DailyCount, error)
	IncrementCount(ctx context.Context, userID uuid.UUID, day time.Time) (int, bool, error)
	SetCount(ctx context.Context, userID uuid.UUID, day time.Time, value int) (int, bool, error)
	ToggleActive(ctx context.Context, userID uuid.UUID, day time.Time) (int, bool, error)
	ListCountersByDay(ctx context.Context, day time.Time) ([]models.DailyCount, error)
	ListCountersByUser(ctx context.Context, userID uuid.UUID) ([]models.DailyCount, error)
	SumCountsByDay(ctx context.Context, from, to time.Time) (map[time.Time]int, error)
	TotalCounts(ctx context.Context) (int, error)
	TopUsersByTotal(ctx context.Context, limit int) ([]UserTotal, error)
}

// SettingsSource provides the gating thresholds. Reads happen on every
// gated call; any caching stays inside the source.
type SettingsSource interface {
	ResultTime(ctx context.Context) (int, error)
	CountingClosedTime(ctx context.Context) (int, error)
}

// App handles counting business logic: the Active/Paused lifecycle of a
// user's daily counter and the time gate on mutations.
type App struct {
	repo      CountersRepository
	settings  SettingsSource
	gate      *timegate.Gate
	publisher events.Publisher
}

// NewApp creates a new counting App
func NewApp(repo CountersRepository, settings SettingsSource, gate *timegate.Gate, publisher events.Publisher) *App {
	return &App{
		repo:      repo,
		settings:  settings,
		gate:      gate,
		publisher: publisher,
	}
}

// Increment adds 1 to the caller's counter for today. It fails with
// ErrCountingClosed once the result time has passed and with
// ErrCountingPaused while the counter is paused.
func (a *App) Increment(ctx context.Context, userID uuid.UUID) (int, error) {
	closed, err := a.isCountingClosed(ctx)
	if err != nil {
		return 0, err
	}
	if closed {
		return 0, ErrCountingClosed
	}

	day := a.gate.Today()
	count, isActive, err := a.repo.IncrementCount(ctx, userID, day)
	if err != nil {
		return 0, err
	}
	if !isActive {
		return 0, ErrCountingPaused
	}

	a.publish(ctx, events.TypeIncremented, userID, day, count, isActive)
	return count, nil
}

// Sync overwrites today's count with a client-reported value (batch save
// from the app). Same gate as Increment; last write wins, and the pause
// flag is deliberately not consulted.
func (a *App) Sync(ctx context.Context, userID uuid.UUID, value int) (int, error) {
	if value < 0 {
		return 0, fmt.Errorf("count must be non-negative, got %d", value)
	}

	closed, err := a.isCountingClosed(ctx)
	if err != nil {
		return 0, err
	}
	if closed {
		return 0, ErrCountingClosed
	}

	day := a.gate.Today()
	count, isActive, err := a.repo.SetCount(ctx, userID, day, value)
	if err != nil {
		return 0, err
	}

	a.publish(ctx, events.TypeSynced, userID, day, count, isActive)
	return count, nil
}

// ToggleActive flips the pause flag on today's counter, creating it if
// absent. Pausing and resuming are never time-gated.
func (a *App) ToggleActive(ctx context.Context, userID uuid.UUID) (bool, error) {
	day := a.gate.Today()
	count, isActive, err := a.repo.ToggleActive(ctx, userID, day)
	if err != nil {
		return false, err
	}

	a.publish(ctx, events.TypeToggled, userID, day, count, isActive)
	return isActive, nil
}

// EnsureToday returns today's counter status, materializing the row if
// absent. The write-on-read is intentional: it keeps chart and history
// data consistent with the mutation paths.
func (a *App) EnsureToday(ctx context.Context, userID uuid.UUID) (*CounterStatus, error) {
	counter, err := a.repo.EnsureCounter(ctx, userID, a.gate.Today())
	if err != nil {
		return nil, err
	}

	closed, err := a.isCountingClosed(ctx)
	if err != nil {
		return nil, err
	}

	return &CounterStatus{
		Count:            counter.Count,
		IsActive:         counter.IsActive,
		IsCountingClosed: closed,
	}, nil
}

// History returns a user's counters newest first with summary totals.
func (a *App) History(ctx context.Context, userID uuid.UUID) (*UserHistory, error) {
	counters, err := a.repo.ListCountersByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	history := &UserHistory{Counts: counters, DaysActive: len(counters)}
	for _, c := range counters {
		history.TotalCount += c.Count
	}
	if len(counters) > 0 {
		history.LastCount = counters[0].Count
	}
	return history, nil
}

// ListCountersByDay exposes a day's counters for the leaderboard.
func (a *App) ListCountersByDay(ctx context.Context, day time.Time) ([]models.DailyCount, error) {
	return a.repo.ListCountersByDay(ctx, day)
}

// SumCountsByDay exposes per-day totals for trend charts.
func (a *App) SumCountsByDay(ctx context.Context, from, to time.Time) (map[time.Time]int, error) {
	return a.repo.SumCountsByDay(ctx, from, to)
}

// TotalCounts exposes the all-time grand total.
func (a *App) TotalCounts(ctx context.Context) (int, error) {
	return a.repo.TotalCounts(ctx)
}

// TopUsersByTotal exposes the all-time top counters.
func (a *App) TopUsersByTotal(ctx context.Context, limit int) ([]UserTotal, error) {
	return a.repo.TopUsersByTotal(ctx, limit)
}

// isCountingClosed answers whether mutations are locked right now. The
// check is computed fresh on every call so the gate can flip mid-session.
// Only result_time locks counting; counting_closed_time is read and seeded
// but deliberately unenforced until its intended semantics are settled —
// this is the place a second threshold would be checked.
func (a *App) isCountingClosed(ctx context.Context) (bool, error) {
	resultTime, err := a.settings.ResultTime(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read result time: %w", err)
	}
	return a.gate.IsAtOrAfter(resultTime), nil
}

func (a *App) publish(ctx context.Context, eventType string, userID uuid.UUID, day time.Time, count int, isActive bool) {
	event := events.CountEvent{
		ID:       uuid.New(),
		Type:     eventType,
		UserID:   userID,
		Day:      day.Format("2006-01-02"),
		Count:    count,
		IsActive: isActive,
		At:       a.gate.Now(),
	}
	if err := a.publisher.Publish(ctx, event); err != nil {
		log.Warn().
			Err(err).
			Str("event_type", eventType).
			Str("user_id", userID.String()).
			Msg("failed to publish count event")
	}
}
