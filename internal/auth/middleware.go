package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/darsni/backend/internal/domain"
	"github.com/darsni/backend/internal/observability"
	apperrors "github.com/darsni/backend/pkg/util/errorutil"
)

const authStateKey = "auth_state"

const (
	outcomeAuthenticated = "authenticated"
	outcomeAnonymous     = "anonymous"
)

// Guard composes bearer extraction and identity resolution in front of routes.
type Guard struct {
	name     string
	resolver Resolver
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewGuard builds a guard around resolver. name labels logs and metrics.
func NewGuard(name string, resolver Resolver, logger *zap.Logger, metrics *observability.Metrics) *Guard {
	return &Guard{
		name:     name,
		resolver: resolver,
		logger:   logger.With(zap.String("guard", name)),
		metrics:  metrics,
	}
}

// Required rejects the request unless a valid credential resolves to an identity.
func (g *Guard) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := g.authenticate(c)
		if err != nil {
			domainErr := apperrors.ToDomainError(err)
			g.metrics.RecordAuth(g.name, domainErr.Code)
			g.logger.Warn("authentication rejected",
				zap.String("code", domainErr.Code),
				zap.String("path", c.Path()),
				zap.Error(domainErr.Unwrap()),
			)
			return domainErr
		}

		g.metrics.RecordAuth(g.name, outcomeAuthenticated)
		attach(c, domain.Authenticated(identity))
		return c.Next()
	}
}

// Optional never rejects: a missing or unusable credential proceeds as anonymous.
func (g *Guard) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := g.authenticate(c)
		if err != nil {
			domainErr := apperrors.ToDomainError(err)
			if domainErr.Code != apperrors.CodeTokenRequired {
				g.logger.Debug("optional authentication ignored",
					zap.String("code", domainErr.Code),
					zap.String("path", c.Path()),
					zap.Error(domainErr.Unwrap()),
				)
			}
			g.metrics.RecordAuth(g.name, outcomeAnonymous)
			attach(c, domain.Anonymous())
			return c.Next()
		}

		g.metrics.RecordAuth(g.name, outcomeAuthenticated)
		attach(c, domain.Authenticated(identity))
		return c.Next()
	}
}

func (g *Guard) authenticate(c *fiber.Ctx) (*domain.Identity, error) {
	token, err := ExtractBearerToken(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return nil, err
	}

	identity, err := g.resolver.Resolve(c.UserContext(), token)
	if err != nil {
		var domainErr *apperrors.DomainError
		if !errors.As(err, &domainErr) {
			return nil, apperrors.NewAuthenticationFailed().WithCause(err)
		}
		return nil, err
	}
	return identity, nil
}

func attach(c *fiber.Ctx, state domain.AuthState) {
	c.Locals(authStateKey, state)
	if identity, ok := state.Identity(); ok {
		c.Locals(observability.PrincipalLocalKey, identity.ID)
	}
}

// AuthStateFromContext returns the state attached by a guard. Requests that
// passed through no guard report Anonymous and false.
func AuthStateFromContext(c *fiber.Ctx) (domain.AuthState, bool) {
	state, ok := c.Locals(authStateKey).(domain.AuthState)
	if !ok {
		return domain.Anonymous(), false
	}
	return state, true
}

// IdentityFromContext retrieves the authenticated identity, if any.
func IdentityFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	state, _ := AuthStateFromContext(c)
	return state.Identity()
}
