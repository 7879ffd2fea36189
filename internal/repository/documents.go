// Package repository provides persistence implementations for document
// records using a PostgreSQL database.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/mzaikov/docvault/internal/models"
)

// PostgresDocumentRepository implements document persistence operations
// against a PostgreSQL database.
type PostgresDocumentRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresDocumentRepository creates a new PostgresDocumentRepository
// using the provided *sql.DB.
func NewPostgresDocumentRepository(db *sql.DB) *PostgresDocumentRepository {
	return &PostgresDocumentRepository{DB: db}
}

const documentColumns = `id, owner_id, filename, category, COALESCE(storage_ref, ''), uploaded_at, is_deleted, is_encrypted`

func scanDocument(row interface{ Scan(...any) error }) (models.Document, error) {
	var d models.Document
	err := row.Scan(&d.ID, &d.OwnerID, &d.Filename, &d.Category, &d.StorageRef,
		&d.UploadedAt, &d.IsDeleted, &d.IsEncrypted)
	return d, err
}

// GetByOwner fetches all non-deleted documents for the specified owner,
// most recent first.
func (r *PostgresDocumentRepository) GetByOwner(ctx context.Context, ownerID string) ([]models.Document, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		 WHERE owner_id = $1 AND is_deleted = false
		 ORDER BY uploaded_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("GetByOwner: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// GetByID retrieves a single non-deleted document by id. Returns
// sql.ErrNoRows when the document does not exist or is soft-deleted.
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		 WHERE id = $1 AND is_deleted = false
	`, id)
	d, err := scanDocument(row)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// SoftDelete marks the document hidden from normal queries without removing
// the row; the duplicate resolver and the purge cleaner are the only paths
// that physically delete.
func (r *PostgresDocumentRepository) SoftDelete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE documents SET is_deleted = true WHERE id = $1`, id,
	)
	return err
}

// GetDuplicateCandidates fetches all non-deleted documents for the owner
// ordered so that members of the same (filename, category) group are
// adjacent and the most recent member comes first. Ties on uploaded_at fall
// back to descending id, keeping runs reproducible.
func (r *PostgresDocumentRepository) GetDuplicateCandidates(ctx context.Context, ownerID string) ([]models.Document, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		 WHERE owner_id = $1 AND is_deleted = false
		 ORDER BY filename, category, uploaded_at DESC, id DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("GetDuplicateCandidates: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// DeleteByIDs hard-deletes the given document rows as a single batch and
// returns the number of rows removed.
func (r *PostgresDocumentRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM documents WHERE id = ANY($1)`, pq.Array(ids),
	)
	if err != nil {
		return 0, fmt.Errorf("DeleteByIDs: %w", err)
	}
	return res.RowsAffected()
}
