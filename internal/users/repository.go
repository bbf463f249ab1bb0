package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/countboard/countboard/internal/models"
)

// Repository implements user directory data access over Postgres
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new users repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetUser retrieves a user by ID.
func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, username, address, created_at
		FROM users
		WHERE id = $1
	`, id)

	var u models.User
	if err := row.Scan(&u.ID, &u.Name, &u.Username, &u.Address, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// GetUsersByIDs retrieves several users in one query. Missing IDs are
// simply absent from the result.
func (r *Repository) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]models.User{}, nil
	}

	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, username, address, created_at
		FROM users
		WHERE id = ANY($1)
	`, pq.Array(strIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to get users by ids: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]models.User, len(ids))
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Username, &u.Address, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		out[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get users by ids: %w", err)
	}
	return out, nil
}

// ListUsers retrieves all users, newest first, optionally filtered by a
// case-insensitive match on name or username.
func (r *Repository) ListUsers(ctx context.Context, search string) ([]models.User, error) {
	query := `
		SELECT id, name, username, address, created_at
		FROM users
	`
	var args []interface{}
	if search != "" {
		query += ` WHERE name ILIKE $1 OR username ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Username, &u.Address, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return out, nil
}

// RegistrationsByDay counts new registrations per IST calendar day in
// [from, to] inclusive. Days with no registrations are omitted.
func (r *Repository) RegistrationsByDay(ctx context.Context, from, to time.Time) (map[time.Time]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT (created_at AT TIME ZONE 'Asia/Kolkata')::date AS day, COUNT(*)
		FROM users
		WHERE (created_at AT TIME ZONE 'Asia/Kolkata')::date BETWEEN $1::date AND $2::date
		GROUP BY day
	`, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to count registrations: %w", err)
	}
	defer rows.Close()

	out := make(map[time.Time]int)
	for rows.Next() {
		var (
			day time.Time
			n   int
		)
		if err := rows.Scan(&day, &n); err != nil {
			return nil, fmt.Errorf("failed to scan registration count: %w", err)
		}
		out[normalizeDay(day)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to count registrations: %w", err)
	}
	return out, nil
}

// normalizeDay strips everything but the calendar date so map lookups by
// day key work regardless of what zone the driver attached.
func normalizeDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
