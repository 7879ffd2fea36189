// Package service provides business-logic services for authorization and
// repository maintenance, delegating persistence to repository interfaces.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mzaikov/docvault/internal/models"
)

var (
	// ErrUnauthenticated is returned when no valid session identity is
	// attached to the request.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when the authenticated principal lacks the
	// required role or ownership.
	ErrForbidden = errors.New("forbidden")
)

// IdentityProvider resolves the principal behind the current request. A nil
// principal with a nil error means no session is present.
type IdentityProvider interface {
	CurrentPrincipal(ctx context.Context) (*models.Principal, error)
}

// PolicyService makes authorization decisions based on authentication, role,
// and ownership. It performs no writes; it only reads the session identity.
type PolicyService struct {
	identity IdentityProvider
}

// NewPolicyService constructs a PolicyService over the given identity
// provider.
func NewPolicyService(identity IdentityProvider) *PolicyService {
	return &PolicyService{identity: identity}
}

// RequireAuthenticated returns the current principal, or ErrUnauthenticated
// when no valid session is present or the principal is inactive.
func (s *PolicyService) RequireAuthenticated(ctx context.Context) (*models.Principal, error) {
	p, err := s.identity.CurrentPrincipal(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve principal: %w", err)
	}
	if p == nil || !p.IsActive() {
		return nil, ErrUnauthenticated
	}
	return p, nil
}

// RequireRole authenticates and then checks that the principal holds exactly
// the given role. Any mismatch is ErrForbidden.
func (s *PolicyService) RequireRole(ctx context.Context, role models.Role) (*models.Principal, error) {
	p, err := s.RequireAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	if p.Role != role {
		return nil, ErrForbidden
	}
	return p, nil
}

// RequireOwnerOrRole grants access when the principal holds the given role
// or owns the resource. The decision depends only on the stored role and id,
// never on anything the caller claims about itself.
func (s *PolicyService) RequireOwnerOrRole(ctx context.Context, resourceOwnerID string, role models.Role) (*models.Principal, error) {
	p, err := s.RequireAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	if p.Role == role || p.ID == resourceOwnerID {
		return p, nil
	}
	return nil, ErrForbidden
}
