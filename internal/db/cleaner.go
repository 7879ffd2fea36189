package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// BlobDeleter removes the backing blob of a purged document row.
type BlobDeleter interface {
	DeleteBlob(ctx context.Context, storageRef string) error
}

// StartPurgeCleaner hard-deletes documents that were soft-deleted and whose
// upload is older than the retention window, with the given interval.
// Deletion timestamps are not recorded, so retention is measured from upload
// time. Backing blobs of purged rows are removed best-effort: a blob failure
// is logged and never undoes the row purge.
func StartPurgeCleaner(
	ctx context.Context,
	db *sql.DB,
	blobs BlobDeleter,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-retention)
				rows, err := db.QueryContext(ctx, `
                    DELETE FROM documents
                     WHERE is_deleted = true
                       AND uploaded_at < $1
                 RETURNING COALESCE(storage_ref, '')
                `, cutoff)
				if err != nil {
					log.Error("failed to purge soft-deleted documents", zap.Error(err))
					continue
				}

				var purged int
				var refs []string
				for rows.Next() {
					var ref string
					if err := rows.Scan(&ref); err != nil {
						log.Error("failed to scan purged document", zap.Error(err))
						break
					}
					purged++
					if ref != "" {
						refs = append(refs, ref)
					}
				}
				if err := rows.Err(); err != nil {
					log.Error("failed to read purged documents", zap.Error(err))
				}
				rows.Close()

				for _, ref := range refs {
					if err := blobs.DeleteBlob(ctx, ref); err != nil {
						log.Warn("failed to delete purged blob",
							zap.String("storage_ref", ref),
							zap.Error(err),
						)
					}
				}
				if purged > 0 {
					log.Info("purged soft-deleted documents", zap.Int("removed", purged))
				}
			}
		}
	}()
}
