// Package middleware provides HTTP middlewares for authentication,
// route-scoped authorization, and logging.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mzaikov/docvault/internal/models"
)

type ctxKey string

const principalKey ctxKey = "principal"

// PrincipalLookup loads the stored principal record for an authenticated
// subject. The stored row, not the token, decides role and status.
type PrincipalLookup interface {
	GetByID(ctx context.Context, id string) (*models.Principal, error)
}

// WithPrincipal stores the principal in the context.
func WithPrincipal(ctx context.Context, p *models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext extracts the principal from the request context.
func PrincipalFromContext(ctx context.Context) (*models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*models.Principal)
	return p, ok
}

// SessionAuth is a middleware that authenticates requests with an HS256 JWT
// bearer token (Authorization header, or a "session" cookie as fallback).
//
// Only the token's subject is trusted; the principal's role and status are
// loaded from the store, so a token carrying forged role claims cannot
// elevate anyone. Inactive principals are rejected.
func SessionAuth(secret []byte, principals PrincipalLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}

			parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !parsed.Valid {
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}

			sub, err := parsed.Claims.GetSubject()
			if err != nil || sub == "" {
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}

			p, err := principals.GetByID(r.Context(), sub)
			if err != nil || p == nil || !p.IsActive() {
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}

			ctx := WithPrincipal(r.Context(), p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the session token from the Authorization header or,
// failing that, from the session cookie.
func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if c, err := r.Cookie("session"); err == nil {
		return c.Value
	}
	return ""
}
