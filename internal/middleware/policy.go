package middleware

import (
	"net/http"
	"strings"

	"github.com/mzaikov/docvault/internal/models"
)

// RoutePolicy maps a path prefix to the minimum role required to enter it.
type RoutePolicy struct {
	Prefix string
	Role   models.Role
}

// DefaultRoutePolicies is the route-scoped policy table evaluated before any
// handler logic runs.
var DefaultRoutePolicies = []RoutePolicy{
	{Prefix: "/api/admin/", Role: models.RoleAdmin},
}

// RequireRoutePolicy denies requests whose path matches a policy entry the
// principal's stored role does not satisfy. Non-admins probing admin paths
// get 404, so denied routes are not confirmed to exist. Handlers behind the
// table still perform their own checks; this is an outer gate, not the only
// one.
func RequireRoutePolicy(policies []RoutePolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, policy := range policies {
				if !strings.HasPrefix(r.URL.Path, policy.Prefix) {
					continue
				}
				p, ok := PrincipalFromContext(r.Context())
				if !ok {
					http.Error(w, "authentication required", http.StatusUnauthorized)
					return
				}
				if p.Role != policy.Role {
					http.NotFound(w, r)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ViewModeGuard neutralizes caller-supplied role/view-mode claims. A request
// parameter like ?view=admin is advisory only: when the stored role does not
// back the claim, the request is redirected to the same path without the
// parameter instead of erroring, so elevated views are neither granted nor
// confirmed to exist.
func ViewModeGuard() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if view := r.URL.Query().Get("view"); view != "" && view != string(models.RoleEmployee) {
				p, ok := PrincipalFromContext(r.Context())
				if !ok || string(p.Role) != view {
					q := r.URL.Query()
					q.Del("view")
					plain := *r.URL
					plain.RawQuery = q.Encode()
					http.Redirect(w, r, plain.String(), http.StatusFound)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
