package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/countboard/countboard/internal/models"
	"github.com/countboard/countboard/internal/sqlutil"
)

// ErrSettingNotFound is returned when no setting exists for a key
var ErrSettingNotFound = errors.New("setting not found")

// Repository implements settings data access over Postgres
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new settings repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetSetting retrieves a single setting by key.
func (r *Repository) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT setting_key, setting_value, value_type, description, updated_at, updated_by
		FROM settings
		WHERE setting_key = $1
	`, key)

	setting, err := scanSetting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSettingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return setting, nil
}

// ListSettings retrieves all settings ordered by key.
func (r *Repository) ListSettings(ctx context.Context) ([]models.Setting, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT setting_key, setting_value, value_type, description, updated_at, updated_by
		FROM settings
		ORDER BY setting_key
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	var out []models.Setting
	for rows.Next() {
		setting, err := scanSetting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		out = append(out, *setting)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	return out, nil
}

// UpsertSetting creates or overwrites a setting.
func (r *Repository) UpsertSetting(ctx context.Context, req UpsertSettingRequest) (*models.Setting, error) {
	row := r.db.QueryRowContext(ctx, upsertSettingQuery,
		req.Key,
		pqtype.NullRawMessage{RawMessage: req.Value, Valid: len(req.Value) > 0},
		req.Type,
		req.Description,
		sqlutil.ToNullUUID(req.UpdatedBy),
	)

	setting, err := scanSetting(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert setting %s: %w", req.Key, err)
	}
	return setting, nil
}

// UpdateSettings applies multiple upserts in a single transaction, so an
// admin bulk edit is all-or-nothing.
func (r *Repository) UpdateSettings(ctx context.Context, reqs []UpsertSettingRequest) error {
	err := sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		for _, req := range reqs {
			row := tx.QueryRowContext(ctx, upsertSettingQuery,
				req.Key,
				pqtype.NullRawMessage{RawMessage: req.Value, Valid: len(req.Value) > 0},
				req.Type,
				req.Description,
				sqlutil.ToNullUUID(req.UpdatedBy),
			)
			if _, err := scanSetting(row); err != nil {
				return fmt.Errorf("failed to upsert setting %s: %w", req.Key, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	return nil
}

const upsertSettingQuery = `
	INSERT INTO settings (setting_key, setting_value, value_type, description, updated_by, updated_at)
	VALUES ($1, $2, $3, $4, $5, NOW())
	ON CONFLICT (setting_key)
	DO UPDATE SET
		setting_value = EXCLUDED.setting_value,
		value_type    = EXCLUDED.value_type,
		description   = EXCLUDED.description,
		updated_by    = EXCLUDED.updated_by,
		updated_at    = NOW()
	RETURNING setting_key, setting_value, value_type, description, updated_at, updated_by
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSetting(row rowScanner) (*models.Setting, error) {
	var (
		s         models.Setting
		value     pqtype.NullRawMessage
		updatedBy uuid.NullUUID
	)
	if err := row.Scan(&s.Key, &value, &s.Type, &s.Description, &s.UpdatedAt, &updatedBy); err != nil {
		return nil, err
	}
	if value.Valid {
		s.Value = value.RawMessage
	}
	s.UpdatedBy = sqlutil.FromNullUUID(updatedBy)
	return &s, nil
}
