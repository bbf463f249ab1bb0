package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/countboard/countboard/internal/sqlutil"
)

func setupDatabase() (*sql.DB, error) {
	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvAsInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		Database: getEnv("DB_NAME", "countboard"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Database, dbConfig.SSLMode)

	database, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	if err := database.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().
		Str("user", dbConfig.User).
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("connected to database")
	return database, nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		username TEXT NOT NULL UNIQUE,
		address TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS daily_counts (
		user_id UUID NOT NULL REFERENCES users(id),
		day DATE NOT NULL,
		count INTEGER NOT NULL DEFAULT 0 CHECK (count >= 0),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, day)
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		setting_key TEXT PRIMARY KEY,
		setting_value JSONB NOT NULL,
		value_type TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_by UUID
	)`,
}

var seedSettings = []struct {
	key         string
	value       string
	settingType string
	description string
}{
	{"result_time", "20", "number", "Hour (IST) after which counting closes and the leaderboard opens"},
	{"counting_closed_time", "24", "number", "Hour (IST) at which counting closes early; 24 means never"},
}

// migrate creates the schema and seeds the default settings. Seeding uses
// ON CONFLICT DO NOTHING so operator-tuned values survive restarts.
func migrate(ctx context.Context, database *sql.DB) error {
	return sqlutil.Run(ctx, database, func(tx *sql.Tx) error {
		for _, stmt := range schemaStatements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}
		}
		for _, s := range seedSettings {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO settings (setting_key, setting_value, value_type, description) VALUES ($1, $2, $3, $4)
				 ON CONFLICT (setting_key) DO NOTHING`,
				s.key, s.value, s.settingType, s.description)
			if err != nil {
				return fmt.Errorf("failed to seed setting %s: %w", s.key, err)
			}
		}
		return nil
	})
}
