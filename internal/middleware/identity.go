package middleware

import (
	"context"

	"github.com/mzaikov/docvault/internal/models"
)

// ContextIdentity resolves the principal placed in the request context by
// SessionAuth. It satisfies the service layer's IdentityProvider interface:
// a request that never passed authentication yields a nil principal.
type ContextIdentity struct{}

// CurrentPrincipal returns the context principal, or nil when none is set.
func (ContextIdentity) CurrentPrincipal(ctx context.Context) (*models.Principal, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return nil, nil
	}
	return p, nil
}
