// Package http provides HTTP routing and middleware configuration
// for the document repository service.
package http

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mzaikov/docvault/internal/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves the document
// repository API.
//
// Routes:
//
//	GET    /api/documents                 → docHandler.List (own documents)
//	GET    /api/documents/{id}            → docHandler.Get (owner or admin)
//	DELETE /api/documents/{id}            → docHandler.Delete (owner or admin)
//	POST   /api/admin/rekey               → adminHandler.Rekey
//	POST   /api/admin/resolve-duplicates  → adminHandler.ResolveDuplicates
//	GET    /api/admin/settings/{key}      → settingsHandler.Get
//	PUT    /api/admin/settings/{key}      → settingsHandler.Set
//
// Middleware chain (applied in order):
//  1. AllowContentType("application/json") — rejects non-JSON bodies
//  2. WithRequestLogging(logger)           — logs each request
//  3. SessionAuth                          — resolves the stored principal
//  4. RequireRoutePolicy                   — route-scoped role table
//  5. ViewModeGuard                        — strips unbacked view-mode claims
func NewRouter(
	docHandler *DocumentHandler,
	adminHandler *AdminHandler,
	settingsHandler *SettingsHandler,
	jwtSecret []byte,
	principals middleware.PrincipalLookup,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Only allow requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	// Mount API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.SessionAuth(jwtSecret, principals))
		r.Use(middleware.RequireRoutePolicy(middleware.DefaultRoutePolicies))
		r.Use(middleware.ViewModeGuard())

		r.Get("/documents", docHandler.List)
		r.Get("/documents/{id}", docHandler.Get)
		r.Delete("/documents/{id}", docHandler.Delete)

		// Administrative one-shot operations
		r.Route("/admin", func(r chi.Router) {
			r.Post("/rekey", adminHandler.Rekey)
			r.Post("/resolve-duplicates", adminHandler.ResolveDuplicates)
			r.Get("/settings/{key}", settingsHandler.Get)
			r.Put("/settings/{key}", settingsHandler.Set)
		})
	})

	return r
}
