package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresSettingsRepository implements the key/value settings store over a
// PostgreSQL table. The settings table itself is created by the schema
// evolution migration list.
type PostgresSettingsRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresSettingsRepository creates a new PostgresSettingsRepository
// with the given database connection.
func NewPostgresSettingsRepository(db *sql.DB) *PostgresSettingsRepository {
	return &PostgresSettingsRepository{DB: db}
}

// Get returns the value stored under key. The second return value is false
// when the key is absent; absence is not an error.
func (r *PostgresSettingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.DB.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = $1`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("settings get %q: %w", key, err)
	}
	return value, true, nil
}

// Set upserts the value under key: insert if absent, overwrite if present.
// Last write wins; the upsert is atomic at the row level, so concurrent
// writers for the same key leave exactly one surviving value.
func (r *PostgresSettingsRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("settings set %q: %w", key, err)
	}
	return nil
}
