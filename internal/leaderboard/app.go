package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/countboard/countboard/internal/counting"
	"github.com/countboard/countboard/internal/models"
	"github.com/countboard/countboard/internal/timegate"
)

// ErrNotAvailable is returned while the leaderboard gate is still shut so
// callers can tell "not yet" from "broken".
var ErrNotAvailable = errors.New("leaderboard is not available yet")

// TrendDays is the trailing window of the dashboard charts.
const TrendDays = 30

const topUserLimit = 5

// CountsSource defines what the leaderboard needs from the counting app
type CountsSource interface {
	ListCountersByDay(ctx context.Context, day time.Time) ([]models.DailyCount, error)
	SumCountsByDay(ctx context.Context, from, to time.Time) (map[time.Time]int, error)
	TotalCounts(ctx context.Context) (int, error)
	TopUsersByTotal(ctx context.Context, limit int) ([]counting.UserTotal, error)
}

// UserDirectory defines what the leaderboard needs from the users app
type UserDirectory interface {
	GetUsersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error)
	ListUsers(ctx context.Context, search string) ([]models.User, error)
	RegistrationsByDay(ctx context.Context, from, to time.Time) (map[time.Time]int, error)
}

// SettingsSource provides the reveal threshold.
type SettingsSource interface {
	ResultTime(ctx context.Context) (int, error)
}

// App produces the ranked daily view and the dashboard aggregations.
type App struct {
	counts   CountsSource
	users    UserDirectory
	settings SettingsSource
	gate     *timegate.Gate
}

// NewApp creates a new leaderboard App
func NewApp(counts CountsSource, users UserDirectory, settings SettingsSource, gate *timegate.Gate) *App {
	return &App{
		counts:   counts,
		users:    users,
		settings: settings,
		gate:     gate,
	}
}

// GetLeaderboard returns the ranked entries for one calendar day. The gate
// is evaluated against the current moment, not the requested day: even a
// past day's board stays hidden until today's result time has passed.
func (a *App) GetLeaderboard(ctx context.Context, day time.Time) ([]Entry, error) {
	resultTime, err := a.settings.ResultTime(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read result time: %w", err)
	}
	if !a.gate.IsAtOrAfter(resultTime) {
		return nil, ErrNotAvailable
	}

	counters, err := a.counts.ListCountersByDay(ctx, day)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(counters))
	for i, c := range counters {
		ids[i] = c.UserID
	}
	directory, err := a.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	// Descending by count; ties keep their fetch order rather than being
	// broken by name or id.
	sort.SliceStable(counters, func(i, j int) bool {
		return counters[i].Count > counters[j].Count
	})

	entries := make([]Entry, 0, len(counters))
	for _, c := range counters {
		user, ok := directory[c.UserID]
		if !ok {
			// Counter without a directory entry: the user was removed
			// out-of-band. Leave them off the board.
			log.Warn().Str("user_id", c.UserID.String()).Msg("counter has no directory entry")
			continue
		}
		entries = append(entries, Entry{
			Rank:     len(entries) + 1,
			Name:     user.Name,
			Username: user.Username,
			Count:    c.Count,
			Address:  user.Address,
		})
	}
	return entries, nil
}

// GetTrend builds the dashboard chart series for the trailing window
// (inclusive of today). Read-only; no rows are materialized.
func (a *App) GetTrend(ctx context.Context, days int) (*Trend, error) {
	if days <= 0 {
		days = TrendDays
	}
	today := a.gate.Today()
	from := today.AddDate(0, 0, -(days - 1))

	sums, err := a.counts.SumCountsByDay(ctx, from, today)
	if err != nil {
		return nil, err
	}
	regs, err := a.users.RegistrationsByDay(ctx, from, today)
	if err != nil {
		return nil, err
	}

	trend := &Trend{
		WeeklyLabels: []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"},
		WeeklyData:   make([]int, 7),
	}
	for i := 0; i < days; i++ {
		day := from.AddDate(0, 0, i)
		label := day.Format("Jan 2")
		sum := lookupDay(sums, day)

		trend.DailyLabels = append(trend.DailyLabels, label)
		trend.DailyData = append(trend.DailyData, sum)
		trend.RegLabels = append(trend.RegLabels, label)
		trend.RegData = append(trend.RegData, lookupDay(regs, day))

		// Monday-first bucket index.
		trend.WeeklyData[(int(day.Weekday())+6)%7] += sum
	}

	topUsers, err := a.counts.TopUsersByTotal(ctx, topUserLimit)
	if err != nil {
		return nil, err
	}
	topIDs := make([]uuid.UUID, len(topUsers))
	for i, t := range topUsers {
		topIDs[i] = t.UserID
	}
	names, err := a.users.GetUsersByIDs(ctx, topIDs)
	if err != nil {
		return nil, err
	}
	for _, t := range topUsers {
		name := "Unknown"
		if user, ok := names[t.UserID]; ok {
			name = user.Name
		}
		trend.TopUserNames = append(trend.TopUserNames, name)
		trend.TopUserCounts = append(trend.TopUserCounts, t.Total)
	}
	return trend, nil
}

// GetStats returns the dashboard headline numbers.
func (a *App) GetStats(ctx context.Context) (*Stats, error) {
	users, err := a.users.ListUsers(ctx, "")
	if err != nil {
		return nil, err
	}
	total, err := a.counts.TotalCounts(ctx)
	if err != nil {
		return nil, err
	}
	todayCounters, err := a.counts.ListCountersByDay(ctx, a.gate.Today())
	if err != nil {
		return nil, err
	}

	active := 0
	for _, c := range todayCounters {
		if c.Count > 0 {
			active++
		}
	}

	stats := &Stats{
		TotalUsers:       len(users),
		ActiveUsersToday: active,
		TotalCounts:      total,
	}
	if stats.TotalUsers > 0 {
		stats.AvgDailyCount = float64(total) / float64(stats.TotalUsers)
	}
	return stats, nil
}

// lookupDay matches map keys by calendar date, ignoring whatever zone the
// producer attached.
func lookupDay(m map[time.Time]int, day time.Time) int {
	want := day.Format("2006-01-02")
	for k, v := range m {
		if k.Format("2006-01-02") == want {
			return v
		}
	}
	return 0
}
