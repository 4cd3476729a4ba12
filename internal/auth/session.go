package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/darsni/backend/internal/domain"
	apperrors "github.com/darsni/backend/pkg/util/errorutil"
)

// TokenKind discriminates access from refresh credentials.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

const (
	defaultAccessTTL  = 7 * 24 * time.Hour
	defaultRefreshTTL = 30 * 24 * time.Hour
)

var (
	// ErrSessionExpired is returned when a local credential is past its expiry.
	ErrSessionExpired = errors.New("session token expired")
	// ErrSessionInvalid is returned for malformed, mis-signed or wrong-kind credentials.
	ErrSessionInvalid = errors.New("session token invalid")
)

// SessionPayload is the caller-provided content of a local credential.
type SessionPayload struct {
	PrincipalID string
	Email       string
	Role        domain.Role
}

// SessionClaims describes the signed JWT payload.
type SessionClaims struct {
	PrincipalID string      `json:"uid"`
	Email       string      `json:"email,omitempty"`
	Role        domain.Role `json:"role,omitempty"`
	Kind        TokenKind   `json:"kind"`
	jwt.RegisteredClaims
}

// Payload returns the caller-visible part of the claims.
func (c *SessionClaims) Payload() SessionPayload {
	return SessionPayload{PrincipalID: c.PrincipalID, Email: c.Email, Role: c.Role}
}

// SessionIssuer mints and verifies locally-signed session credentials.
type SessionIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// SessionOption customizes a SessionIssuer.
type SessionOption func(*SessionIssuer)

// WithClock overrides the time source used for issuing and validating.
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionIssuer) {
		s.now = now
	}
}

// NewSessionIssuer builds an issuer. Non-positive TTLs fall back to 7 and 30 days.
func NewSessionIssuer(secret string, accessTTL, refreshTTL time.Duration, opts ...SessionOption) *SessionIssuer {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	s := &SessionIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AccessTTL returns the default lifetime of access credentials.
func (s *SessionIssuer) AccessTTL() time.Duration {
	return s.accessTTL
}

// IssueAccess signs an access credential with the default lifetime.
func (s *SessionIssuer) IssueAccess(payload SessionPayload) (string, time.Time, error) {
	return s.issue(payload, TokenKindAccess, s.accessTTL)
}

// IssueAccessWithTTL signs an access credential with an explicit lifetime.
func (s *SessionIssuer) IssueAccessWithTTL(payload SessionPayload, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = s.accessTTL
	}
	return s.issue(payload, TokenKindAccess, ttl)
}

// IssueRefresh signs a refresh credential.
func (s *SessionIssuer) IssueRefresh(payload SessionPayload) (string, time.Time, error) {
	return s.issue(payload, TokenKindRefresh, s.refreshTTL)
}

func (s *SessionIssuer) issue(payload SessionPayload, kind TokenKind, ttl time.Duration) (string, time.Time, error) {
	// NumericDate has whole-second precision. exp is rounded up so the credential
	// lives at least ttl, and the returned expiry is exactly the signed exp.
	now := s.now()
	issuedAt := now.Truncate(time.Second)
	expiresAt := now.Add(ttl)
	if whole := expiresAt.Truncate(time.Second); !whole.Equal(expiresAt) {
		expiresAt = whole.Add(time.Second)
	}
	claims := &SessionClaims{
		PrincipalID: payload.PrincipalID,
		Email:       payload.Email,
		Role:        payload.Role,
		Kind:        kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   payload.PrincipalID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// Decode verifies the signature and expiry of a credential and checks its kind.
// Errors are classified as ErrSessionExpired, ErrSessionInvalid, or returned as-is.
func (s *SessionIssuer) Decode(tokenStr string, kind TokenKind) (*SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, classifyJWTError(err)
	}

	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid {
		return nil, ErrSessionInvalid
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: expected %s credential, got %q", ErrSessionInvalid, kind, claims.Kind)
	}
	return claims, nil
}

// VerifyRefresh decodes a refresh credential. Any failure maps to INVALID_REFRESH_TOKEN.
// Minting the replacement access credential is up to the caller.
func (s *SessionIssuer) VerifyRefresh(tokenStr string) (*SessionClaims, error) {
	claims, err := s.Decode(tokenStr, TokenKindRefresh)
	if err != nil {
		return nil, apperrors.NewInvalidRefreshToken().WithCause(err)
	}
	return claims, nil
}

func classifyJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrSessionExpired, err)
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing),
		errors.Is(err, jwt.ErrTokenInvalidClaims) && !errors.Is(err, jwt.ErrTokenNotValidYet):
		return fmt.Errorf("%w: %v", ErrSessionInvalid, err)
	default:
		return err
	}
}
