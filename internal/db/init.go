// Package db manages the PostgreSQL connection, the base schema, and the
// idempotent schema evolution of a live store.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// schema is the base shape expected by every deployment. Columns added after
// the initial release arrive through the Guard's migration list instead.
const schema = `
CREATE TABLE IF NOT EXISTS principals (
    id TEXT PRIMARY KEY,
    role TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'active'
);

CREATE TABLE IF NOT EXISTS companies (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    owner_id TEXT REFERENCES principals(id),
    filename TEXT NOT NULL,
    category TEXT NOT NULL,
    uploaded_at TIMESTAMPTZ NOT NULL,
    is_deleted BOOLEAN NOT NULL DEFAULT FALSE
);
`

// InitPostgres opens a PostgreSQL connection, verifies it, and ensures the
// base schema exists. The connection is closed again when verification fails,
// so callers never receive a half-initialized handle to leak.
func InitPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := bootstrap(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func bootstrap(db *sql.DB) error {
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}
