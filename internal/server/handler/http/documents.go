// Package http provides HTTP handlers for the role-gated document surface.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mzaikov/docvault/internal/models"
	"github.com/mzaikov/docvault/internal/service"
)

// DocumentService defines the document operations required by the HTTP
// handlers.
type DocumentService interface {
	// ListOwn returns the authenticated principal's own documents.
	ListOwn(ctx context.Context) ([]models.Document, error)
	// Get returns a single document, gated by ownership or admin role.
	Get(ctx context.Context, id string) (*models.Document, error)
	// Delete soft-deletes a document, gated the same way.
	Delete(ctx context.Context, id string) error
}

// DocumentHandler handles HTTP requests for document listing and deletion.
type DocumentHandler struct {
	// Documents performs the underlying document operations.
	Documents DocumentService
}

// List handles GET /api/documents and returns the caller's own documents.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.Documents.ListOwn(r.Context())
	if err != nil {
		writeDocumentError(w, r, err)
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(docs)
}

// Get handles GET /api/documents/{id}.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Documents.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDocumentError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(doc)
}

// Delete handles DELETE /api/documents/{id} and soft-deletes the document.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Documents.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDocumentError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}

// writeDocumentError maps service errors to HTTP statuses. Ownership denials
// answer 404 like a missing document, so a denied caller cannot learn whether
// the resource exists.
func writeDocumentError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		http.Error(w, "authentication required", http.StatusUnauthorized)
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrNotFound):
		http.NotFound(w, r)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
