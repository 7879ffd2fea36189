// Package service provides maintenance operations over the document store:
// duplicate resolution and identity rekeying.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mzaikov/docvault/internal/models"
)

// BlobStore is the blob-deletion collaborator. Deletion failures are
// reported but never undo an already-committed row deletion.
type BlobStore interface {
	DeleteBlob(ctx context.Context, storageRef string) error
}

// DocumentRepository defines the persistence operations needed by duplicate
// resolution.
type DocumentRepository interface {
	// GetDuplicateCandidates returns the owner's non-deleted documents
	// ordered by filename, category, uploaded_at descending, id descending.
	GetDuplicateCandidates(ctx context.Context, ownerID string) ([]models.Document, error)
	// DeleteByIDs hard-deletes the given rows as one batch.
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

// PrincipalRekeyer runs the atomic identity rekey transaction.
type PrincipalRekeyer interface {
	Rekey(ctx context.Context, oldID, newID string) (models.RekeyResult, error)
}

// MaintenanceService implements the administrative one-shot operations.
type MaintenanceService struct {
	docs       DocumentRepository
	principals PrincipalRekeyer
	blobs      BlobStore
	log        *zap.Logger
}

// NewMaintenanceService constructs a MaintenanceService. blobs may be nil
// when the service is used for rekeying only.
func NewMaintenanceService(docs DocumentRepository, principals PrincipalRekeyer, blobs BlobStore, log *zap.Logger) *MaintenanceService {
	return &MaintenanceService{docs: docs, principals: principals, blobs: blobs, log: log}
}

// ResolveDuplicates collapses redundant document records for one owner.
// Within each set of non-deleted documents sharing (filename, category), the
// most recently uploaded member is kept and the rest are hard-deleted in one
// batch per group. Backing blobs of removed rows are deleted best-effort;
// failures are collected as warnings and logged, never failing the run.
//
// A document uploaded concurrently with a run can recreate a duplicate
// immediately after cleanup; the next run resolves it.
func (s *MaintenanceService) ResolveDuplicates(ctx context.Context, ownerID string) (models.ResolveResult, error) {
	result := models.ResolveResult{FileDeletionWarnings: []string{}}
	if ownerID == "" {
		return result, errors.New("owner id is required")
	}

	runID := uuid.NewString()
	docs, err := s.docs.GetDuplicateCandidates(ctx, ownerID)
	if err != nil {
		return result, fmt.Errorf("load duplicate candidates: %w", err)
	}

	// Rows arrive with group members adjacent and the canonical (most
	// recent) member first, so grouping is a single ordered walk.
	for i := 0; i < len(docs); {
		j := i + 1
		for j < len(docs) && docs[j].Filename == docs[i].Filename && docs[j].Category == docs[i].Category {
			j++
		}
		group := docs[i:j]
		i = j
		if len(group) < 2 {
			continue
		}

		stale := group[1:]
		ids := make([]string, 0, len(stale))
		for _, d := range stale {
			ids = append(ids, d.ID)
		}
		deleted, err := s.docs.DeleteByIDs(ctx, ids)
		if err != nil {
			return result, fmt.Errorf("delete duplicate rows: %w", err)
		}
		result.GroupsResolved++
		result.RecordsDeleted += int(deleted)

		// The rows are gone; blob cleanup proceeds even if the caller's
		// context has expired, so committed deletions are never left with
		// unattempted blob removal.
		cleanupCtx := context.WithoutCancel(ctx)
		for _, d := range stale {
			if d.StorageRef == "" {
				continue
			}
			if err := s.blobs.DeleteBlob(cleanupCtx, d.StorageRef); err != nil {
				warning := fmt.Sprintf("blob %s: %v", d.StorageRef, err)
				result.FileDeletionWarnings = append(result.FileDeletionWarnings, warning)
				s.log.Warn("blob deletion failed",
					zap.String("run_id", runID),
					zap.String("owner_id", ownerID),
					zap.String("storage_ref", d.StorageRef),
					zap.Error(err),
				)
			}
		}
	}

	s.log.Info("duplicate resolution finished",
		zap.String("run_id", runID),
		zap.String("owner_id", ownerID),
		zap.Int("groups_resolved", result.GroupsResolved),
		zap.Int("records_deleted", result.RecordsDeleted),
		zap.Int("blob_warnings", len(result.FileDeletionWarnings)),
	)
	return result, nil
}

// Rekey validates and runs the identity rekey transaction for a principal.
func (s *MaintenanceService) Rekey(ctx context.Context, oldID, newID string) (models.RekeyResult, error) {
	if oldID == "" || newID == "" {
		return models.RekeyResult{}, errors.New("both old and new ids are required")
	}
	if oldID == newID {
		return models.RekeyResult{}, errors.New("old and new ids are identical")
	}

	result, err := s.principals.Rekey(ctx, oldID, newID)
	if err != nil {
		return models.RekeyResult{}, err
	}

	s.log.Info("principal rekeyed",
		zap.String("old_id", oldID),
		zap.String("new_id", newID),
		zap.Bool("migrated", result.Migrated),
		zap.Int64("documents_updated", result.DocumentsUpdated),
	)
	return result, nil
}
