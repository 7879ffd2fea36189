package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mzaikov/docvault/internal/models"
)

// SettingsService defines the settings operations required by the HTTP
// handlers.
type SettingsService interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// SettingsHandler handles HTTP requests for the key/value settings store.
// It is mounted under /api/admin, so the route policy table restricts it to
// admins.
type SettingsHandler struct {
	Settings SettingsService
}

// Get handles GET /api/admin/settings/{key}.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	value, found, err := h.Settings.Get(r.Context(), key)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !found {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(models.SettingEntry{Key: key, Value: value})
}

// Set handles PUT /api/admin/settings/{key}. The body carries the value;
// the write is an upsert, last write wins.
func (h *SettingsHandler) Set(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if err := h.Settings.Set(r.Context(), key, req.Value); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(models.SettingEntry{Key: key, Value: req.Value})
}
