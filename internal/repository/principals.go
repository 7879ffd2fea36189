// Package repository provides persistence implementations over a PostgreSQL
// database.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mzaikov/docvault/internal/models"
)

// ErrRekeyTransaction marks a rekey that was aborted and fully rolled back.
var ErrRekeyTransaction = errors.New("rekey transaction failed")

// PostgresPrincipalRepository implements principal operations using a
// PostgreSQL database.
type PostgresPrincipalRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresPrincipalRepository creates a new PostgresPrincipalRepository
// with the given database connection.
func NewPostgresPrincipalRepository(db *sql.DB) *PostgresPrincipalRepository {
	return &PostgresPrincipalRepository{DB: db}
}

// GetByID fetches a single principal by id. Returns sql.ErrNoRows when the
// principal does not exist.
func (r *PostgresPrincipalRepository) GetByID(ctx context.Context, id string) (*models.Principal, error) {
	var p models.Principal
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, role, status, COALESCE(location, '') FROM principals WHERE id = $1
	`, id).Scan(&p.ID, &p.Role, &p.Status, &p.Location)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Exists checks whether a principal with the given id exists.
func (r *PostgresPrincipalRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM principals WHERE id = $1)`,
		id,
	).Scan(&exists)
	return exists, err
}

// Rekey atomically renames a principal's primary key from oldID to newID and
// repoints every dependent document row. The whole operation runs in one
// transaction: either the parent row and all dependents are updated, or
// nothing is.
//
// Running Rekey twice is safe; the second run finds no row under oldID and
// reports Migrated=false without touching anything. The same applies when
// neither id exists.
func (r *PostgresPrincipalRepository) Rekey(ctx context.Context, oldID, newID string) (models.RekeyResult, error) {
	var result models.RekeyResult

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("%w: begin: %v", ErrRekeyTransaction, err)
	}
	defer tx.Rollback()

	// Serialize concurrent rekeys touching either id; the lock is released
	// automatically at commit or rollback.
	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1), hashtext($2))`, oldID, newID,
	); err != nil {
		return result, fmt.Errorf("%w: advisory lock: %v", ErrRekeyTransaction, err)
	}

	// The primary key changes while dependents still reference the old value
	// mid-flight, so referential integrity is suspended for this session.
	if _, err := tx.ExecContext(ctx, `SET LOCAL session_replication_role = replica`); err != nil {
		return result, fmt.Errorf("%w: suspend integrity enforcement: %v", ErrRekeyTransaction, err)
	}

	// Dependents first: no intermediate state ever shows an orphaned
	// reference, even with enforcement suspended.
	docRes, err := tx.ExecContext(ctx,
		`UPDATE documents SET owner_id = $2 WHERE owner_id = $1`, oldID, newID,
	)
	if err != nil {
		return result, fmt.Errorf("%w: update documents: %v", ErrRekeyTransaction, err)
	}
	result.DocumentsUpdated, _ = docRes.RowsAffected()

	prinRes, err := tx.ExecContext(ctx,
		`UPDATE principals SET id = $2 WHERE id = $1`, oldID, newID,
	)
	if err != nil {
		return models.RekeyResult{}, fmt.Errorf("%w: rename principal: %v", ErrRekeyTransaction, err)
	}
	renamed, _ := prinRes.RowsAffected()
	// Zero renamed rows means either the rekey already ran (newID present)
	// or neither id exists; both are no-op successes, never errors.
	result.Migrated = renamed > 0

	if _, err := tx.ExecContext(ctx, `SET session_replication_role = DEFAULT`); err != nil {
		return models.RekeyResult{}, fmt.Errorf("%w: restore integrity enforcement: %v", ErrRekeyTransaction, err)
	}

	if err := tx.Commit(); err != nil {
		return models.RekeyResult{}, fmt.Errorf("%w: commit: %v", ErrRekeyTransaction, err)
	}
	return result, nil
}
