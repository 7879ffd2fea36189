package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mzaikov/docvault/internal/models"
)

// ErrNotFound is returned when a requested document does not exist or is
// soft-deleted.
var ErrNotFound = errors.New("not found")

// DocumentStore defines the persistence operations needed by the document
// read surface.
type DocumentStore interface {
	// GetByOwner retrieves all non-deleted documents of one owner.
	GetByOwner(ctx context.Context, ownerID string) ([]models.Document, error)
	// GetByID fetches a single non-deleted document.
	GetByID(ctx context.Context, id string) (*models.Document, error)
	// SoftDelete hides a document from normal queries.
	SoftDelete(ctx context.Context, id string) error
}

// DocumentService gates document access through the policy evaluator.
type DocumentService struct {
	repo   DocumentStore
	policy *PolicyService
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(repo DocumentStore, policy *PolicyService) *DocumentService {
	return &DocumentService{repo: repo, policy: policy}
}

// ListOwn returns the authenticated principal's own non-deleted documents.
func (s *DocumentService) ListOwn(ctx context.Context) ([]models.Document, error) {
	p, err := s.policy.RequireAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByOwner(ctx, p.ID)
}

// Get returns a single document, visible to its owner and to admins. An
// ownership denial comes back as ErrForbidden; callers must not disclose
// whether the document exists in that case.
func (s *DocumentService) Get(ctx context.Context, id string) (*models.Document, error) {
	if _, err := s.policy.RequireAuthenticated(ctx); err != nil {
		return nil, err
	}
	doc, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.RequireOwnerOrRole(ctx, doc.OwnerID, models.RoleAdmin); err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete soft-deletes a document, allowed for its owner and for admins.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	if _, err := s.policy.RequireAuthenticated(ctx); err != nil {
		return err
	}
	doc, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if _, err := s.policy.RequireOwnerOrRole(ctx, doc.OwnerID, models.RoleAdmin); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, doc.ID)
}
