package auth

import (
	"context"

	"github.com/darsni/backend/internal/domain"
)

// IdentityProvider verifies federated identity tokens. Implementations must not
// retry or cache; a failed call is a hard failure for the request.
type IdentityProvider interface {
	VerifyIdentityToken(ctx context.Context, token string) (*domain.ProviderIdentity, error)
}
