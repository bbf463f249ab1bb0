package counting

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/countboard/countboard/internal/models"
)

// Repository implements daily counter data access over Postgres.
//
// Every mutation is a single INSERT ... ON CONFLICT ... RETURNING statement
// against the (user_id, day) primary key, so records are created lazily,
// creation is idempotent under concurrency, and increment carries no
// read-modify-write race.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new counting repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const dayFormat = "2006-01-02"

// EnsureCounter returns the counter for (userID, day), creating it with
// count=0, is_active=true if absent. The no-op DO UPDATE makes the insert
// return the existing row instead of nothing.
func (r *Repository) EnsureCounter(ctx context.Context, userID uuid.UUID, day time.Time) (*models.DailyCount, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO daily_counts (user_id, day)
		VALUES ($1, $2::date)
		ON CONFLICT (user_id, day)
		DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, day, count, is_active, updated_at
	`, userID, day.Format(dayFormat))

	counter, err := scanCounter(row)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure counter: %w", err)
	}
	return counter, nil
}

// IncrementCount adds 1 to the counter for (userID, day) and returns the
// resulting count and active flag. A fresh counter starts at 1. When the
// counter is paused the count is left untouched and is_active comes back
// false; the caller decides how to surface that.
func (r *Repository) IncrementCount(ctx context.Context, userID uuid.UUID, day time.Time) (int, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO daily_counts (user_id, day, count)
		VALUES ($1, $2::date, 1)
		ON CONFLICT (user_id, day)
		DO UPDATE SET
			count = daily_counts.count + CASE WHEN daily_counts.is_active THEN 1 ELSE 0 END,
			updated_at = NOW()
		RETURNING count, is_active
	`, userID, day.Format(dayFormat))

	var (
		count    int
		isActive bool
	)
	if err := row.Scan(&count, &isActive); err != nil {
		return 0, false, fmt.Errorf("failed to increment count: %w", err)
	}
	return count, isActive, nil
}

// SetCount overwrites the counter value for (userID, day). Last write wins;
// the pause flag is not consulted, matching sync semantics.
func (r *Repository) SetCount(ctx context.Context, userID uuid.UUID, day time.Time, value int) (int, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO daily_counts (user_id, day, count)
		VALUES ($1, $2::date, $3)
		ON CONFLICT (user_id, day)
		DO UPDATE SET count = EXCLUDED.count, updated_at = NOW()
		RETURNING count, is_active
	`, userID, day.Format(dayFormat), value)

	var (
		count    int
		isActive bool
	)
	if err := row.Scan(&count, &isActive); err != nil {
		return 0, false, fmt.Errorf("failed to set count: %w", err)
	}
	return count, isActive, nil
}

// ToggleActive flips the pause flag for (userID, day). A counter that did
// not exist yet is created already paused, which matches the original
// create-then-flip behavior.
func (r *Repository) ToggleActive(ctx context.Context, userID uuid.UUID, day time.Time) (int, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO daily_counts (user_id, day, is_active)
		VALUES ($1, $2::date, FALSE)
		ON CONFLICT (user_id, day)
		DO UPDATE SET is_active = NOT daily_counts.is_active, updated_at = NOW()
		RETURNING count, is_active
	`, userID, day.Format(dayFormat))

	var (
		count    int
		isActive bool
	)
	if err := row.Scan(&count, &isActive); err != nil {
		return 0, false, fmt.Errorf("failed to toggle counter: %w", err)
	}
	return count, isActive, nil
}

// ListCountersByDay retrieves all counters for one calendar day in fetch
// order (ranking happens in the app layer).
func (r *Repository) ListCountersByDay(ctx context.Context, day time.Time) ([]models.DailyCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, day, count, is_active, updated_at
		FROM daily_counts
		WHERE day = $1::date
	`, day.Format(dayFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to list counters by day: %w", err)
	}
	defer rows.Close()

	return collectCounters(rows)
}

// ListCountersByUser retrieves one user's counters, newest day first.
func (r *Repository) ListCountersByUser(ctx context.Context, userID uuid.UUID) ([]models.DailyCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, day, count, is_active, updated_at
		FROM daily_counts
		WHERE user_id = $1
		ORDER BY day DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list counters by user: %w", err)
	}
	defer rows.Close()

	return collectCounters(rows)
}

// SumCountsByDay totals all users' counts per day in [from, to] inclusive.
// Days with no counters are omitted.
func (r *Repository) SumCountsByDay(ctx context.Context, from, to time.Time) (map[time.Time]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT day, COALESCE(SUM(count), 0)
		FROM daily_counts
		WHERE day BETWEEN $1::date AND $2::date
		GROUP BY day
	`, from.Format(dayFormat), to.Format(dayFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to sum counts by day: %w", err)
	}
	defer rows.Close()

	out := make(map[time.Time]int)
	for rows.Next() {
		var (
			day time.Time
			sum int
		)
		if err := rows.Scan(&day, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan day sum: %w", err)
		}
		out[normalizeDay(day)] = sum
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to sum counts by day: %w", err)
	}
	return out, nil
}

// TotalCounts returns the all-time sum of every user's counts.
func (r *Repository) TotalCounts(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(count), 0) FROM daily_counts
	`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to total counts: %w", err)
	}
	return total, nil
}

// TopUsersByTotal returns the users with the highest all-time totals.
func (r *Repository) TopUsersByTotal(ctx context.Context, limit int) ([]UserTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, SUM(count) AS total
		FROM daily_counts
		GROUP BY user_id
		ORDER BY total DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}
	defer rows.Close()

	var out []UserTotal
	for rows.Next() {
		var t UserTotal
		if err := rows.Scan(&t.UserID, &t.Total); err != nil {
			return nil, fmt.Errorf("failed to scan user total: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCounter(row rowScanner) (*models.DailyCount, error) {
	var c models.DailyCount
	if err := row.Scan(&c.UserID, &c.Day, &c.Count, &c.IsActive, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Day = normalizeDay(c.Day)
	return &c, nil
}

func collectCounters(rows *sql.Rows) ([]models.DailyCount, error) {
	var out []models.DailyCount
	for rows.Next() {
		counter, err := scanCounter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan counter: %w", err)
		}
		out = append(out, *counter)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read counters: %w", err)
	}
	return out, nil
}

// normalizeDay strips zone and clock so day keys compare by calendar date.
func normalizeDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
