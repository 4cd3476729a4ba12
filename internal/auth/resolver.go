package auth

import (
	"context"
	"errors"

	"github.com/darsni/backend/internal/domain"
	apperrors "github.com/darsni/backend/pkg/util/errorutil"
)

// Resolver maps a raw bearer token to an identity. Returned errors are
// *errorutil.DomainError values safe to render; the cause is kept for logging.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*domain.Identity, error)
}

// ProviderResolver trusts the identity provider alone. It is the default for
// protected resource routes.
type ProviderResolver struct {
	provider IdentityProvider
}

// NewProviderResolver constructs a provider-direct resolver.
func NewProviderResolver(provider IdentityProvider) *ProviderResolver {
	return &ProviderResolver{provider: provider}
}

// Resolve implements Resolver.
func (r *ProviderResolver) Resolve(ctx context.Context, token string) (*domain.Identity, error) {
	record, err := r.provider.VerifyIdentityToken(ctx, token)
	if err != nil {
		return nil, apperrors.NewAuthenticationFailed().WithCause(err)
	}
	if record == nil || record.PrincipalID == "" {
		return nil, apperrors.NewAuthenticationFailed().WithCause(errors.New("provider returned no principal"))
	}
	return identityFromProvider(record, domain.ResolveRole(record.CustomAttributes)), nil
}

// CrossCheckResolver decodes a locally-issued access credential and requires the
// identity provider to vouch for the same principal.
type CrossCheckResolver struct {
	sessions *SessionIssuer
	provider IdentityProvider
}

// NewCrossCheckResolver constructs a local-credential-plus-provider resolver.
func NewCrossCheckResolver(sessions *SessionIssuer, provider IdentityProvider) *CrossCheckResolver {
	return &CrossCheckResolver{sessions: sessions, provider: provider}
}

// Resolve implements Resolver. The local check runs first, so an expired local
// credential is reported as TOKEN_EXPIRED before any mismatch is considered.
func (r *CrossCheckResolver) Resolve(ctx context.Context, token string) (*domain.Identity, error) {
	claims, err := r.sessions.Decode(token, TokenKindAccess)
	if err != nil {
		return nil, localDecodeError(err)
	}
	if claims.PrincipalID == "" {
		return nil, apperrors.NewInvalidTokenFormat()
	}

	record, err := r.provider.VerifyIdentityToken(ctx, token)
	if err != nil {
		return nil, apperrors.NewAuthenticationFailed().WithCause(err)
	}
	if record == nil {
		return nil, apperrors.NewAuthenticationFailed().WithCause(errors.New("provider returned no principal"))
	}
	if record.PrincipalID != claims.PrincipalID {
		return nil, apperrors.NewTokenMismatch()
	}

	return identityFromProvider(record, domain.RoleFromString(string(claims.Role))), nil
}

func localDecodeError(err error) error {
	switch {
	case errors.Is(err, ErrSessionExpired):
		return apperrors.NewTokenExpired().WithCause(err)
	case errors.Is(err, ErrSessionInvalid):
		return apperrors.NewInvalidToken().WithCause(err)
	default:
		return apperrors.NewAuthenticationFailed().WithCause(err)
	}
}

func identityFromProvider(record *domain.ProviderIdentity, role domain.Role) *domain.Identity {
	verified := record.EmailVerified
	return &domain.Identity{
		ID:               record.PrincipalID,
		Email:            record.Email,
		Role:             role,
		DisplayName:      record.DisplayName,
		PhotoURL:         record.PhotoURL,
		EmailVerified:    &verified,
		CustomAttributes: record.CustomAttributes,
	}
}
