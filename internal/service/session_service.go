package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/darsni/backend/internal/auth"
	"github.com/darsni/backend/internal/domain"
)

// SessionTokens is a freshly minted credential pair. Refresh fields are empty
// when only the access credential was renewed.
type SessionTokens struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// SessionService exchanges provider-verified identities for local credentials.
type SessionService struct {
	issuer *auth.SessionIssuer
	logger *zap.Logger
}

// NewSessionService builds the service.
func NewSessionService(issuer *auth.SessionIssuer, logger *zap.Logger) *SessionService {
	return &SessionService{issuer: issuer, logger: logger}
}

// Start issues an access and a refresh credential for identity.
func (s *SessionService) Start(_ context.Context, identity *domain.Identity) (*SessionTokens, error) {
	payload := auth.SessionPayload{
		PrincipalID: identity.ID,
		Email:       identity.Email,
		Role:        identity.Role,
	}

	access, accessExp, err := s.issuer.IssueAccess(payload)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.issuer.IssueRefresh(payload)
	if err != nil {
		return nil, err
	}

	s.logger.Info("session issued", zap.String("principal_id", identity.ID), zap.String("role", identity.Role.String()))
	return &SessionTokens{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Refresh verifies a refresh credential and mints a new access credential carrying
// the same payload. The refresh credential itself is not rotated.
func (s *SessionService) Refresh(_ context.Context, refreshToken string) (*SessionTokens, error) {
	claims, err := s.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		s.logger.Warn("refresh rejected", zap.Error(err))
		return nil, err
	}

	access, accessExp, err := s.issuer.IssueAccess(claims.Payload())
	if err != nil {
		return nil, err
	}
	return &SessionTokens{AccessToken: access, AccessExpiresAt: accessExp}, nil
}
