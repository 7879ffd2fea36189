// Package http provides HTTP handlers for administrative one-shot
// operations: identity rekeying and duplicate resolution.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mzaikov/docvault/internal/models"
	"github.com/mzaikov/docvault/internal/service"
)

// MaintenanceService defines the administrative operations required by the
// AdminHandler.
type MaintenanceService interface {
	// Rekey atomically renames a principal id and all dependent references.
	Rekey(ctx context.Context, oldID, newID string) (models.RekeyResult, error)
	// ResolveDuplicates collapses redundant document records for one owner.
	ResolveDuplicates(ctx context.Context, ownerID string) (models.ResolveResult, error)
}

// PolicyService defines the authorization check the AdminHandler performs
// before running any operation.
type PolicyService interface {
	RequireRole(ctx context.Context, role models.Role) (*models.Principal, error)
}

// AdminHandler handles HTTP requests for administrative operations. The
// route policy table already gates /api/admin; the handler re-checks the
// role anyway so the operations stay safe if mounted elsewhere.
type AdminHandler struct {
	Maintenance MaintenanceService
	Policy      PolicyService
}

// operationResponse is the structured payload of every administrative
// operation.
type operationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// RekeyRequest represents the JSON payload for a rekey operation.
type RekeyRequest struct {
	OldID string `json:"old_id"`
	NewID string `json:"new_id"`
}

// Rekey handles POST /api/admin/rekey.
func (h *AdminHandler) Rekey(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var req RekeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OldID == "" || req.NewID == "" {
		writeOperation(w, http.StatusBadRequest, operationResponse{
			Success: false,
			Message: "old_id and new_id are required",
		})
		return
	}

	result, err := h.Maintenance.Rekey(r.Context(), req.OldID, req.NewID)
	if err != nil {
		writeOperation(w, http.StatusInternalServerError, operationResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	message := "principal rekeyed"
	if !result.Migrated {
		message = "nothing to migrate"
	}
	writeOperation(w, http.StatusOK, operationResponse{
		Success: true,
		Message: message,
		Details: result,
	})
}

// ResolveRequest represents the JSON payload for a duplicate-resolution
// operation.
type ResolveRequest struct {
	OwnerID string `json:"owner_id"`
}

// ResolveDuplicates handles POST /api/admin/resolve-duplicates.
func (h *AdminHandler) ResolveDuplicates(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OwnerID == "" {
		writeOperation(w, http.StatusBadRequest, operationResponse{
			Success: false,
			Message: "owner_id is required",
		})
		return
	}

	result, err := h.Maintenance.ResolveDuplicates(r.Context(), req.OwnerID)
	if err != nil {
		writeOperation(w, http.StatusInternalServerError, operationResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	writeOperation(w, http.StatusOK, operationResponse{
		Success: true,
		Message: "duplicates resolved",
		Details: result,
	})
}

// requireAdmin enforces the admin role, hiding the endpoint from everyone
// else the same way the route policy table does.
func (h *AdminHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if _, err := h.Policy.RequireRole(r.Context(), models.RoleAdmin); err != nil {
		if errors.Is(err, service.ErrUnauthenticated) {
			http.Error(w, "authentication required", http.StatusUnauthorized)
		} else {
			http.NotFound(w, r)
		}
		return false
	}
	return true
}

func writeOperation(w http.ResponseWriter, status int, resp operationResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
