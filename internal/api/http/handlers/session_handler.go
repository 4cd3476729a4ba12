package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/darsni/backend/internal/api/dto"
	"github.com/darsni/backend/internal/auth"
	"github.com/darsni/backend/internal/service"
	apperrors "github.com/darsni/backend/pkg/util/errorutil"
)

// SessionHandler exposes local session endpoints.
type SessionHandler struct {
	sessions *service.SessionService
}

// NewSessionHandler constructs handler.
func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Start handles POST /api/auth/session.
func (h *SessionHandler) Start(c *fiber.Ctx) error {
	identity, found := auth.IdentityFromContext(c)
	if !found {
		return apperrors.NewAuthenticationRequired()
	}

	tokens, err := h.sessions.Start(c.UserContext(), identity)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, fiber.Map{
		"user": identity.Attributes(),
		"auth": dto.SessionResponse{
			AccessToken:      tokens.AccessToken,
			ExpiresAt:        tokens.AccessExpiresAt,
			RefreshToken:     tokens.RefreshToken,
			RefreshExpiresAt: &tokens.RefreshExpiresAt,
		},
	})
}

// Refresh handles POST /api/auth/refresh.
func (h *SessionHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	tokens, err := h.sessions.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, fiber.Map{
		"auth": dto.SessionResponse{AccessToken: tokens.AccessToken, ExpiresAt: tokens.AccessExpiresAt},
	})
}

// Verify handles GET /api/auth/verify and echoes the resolved identity.
func (h *SessionHandler) Verify(c *fiber.Ctx) error {
	identity, found := auth.IdentityFromContext(c)
	if !found {
		return apperrors.NewAuthenticationRequired()
	}
	return ok(c, http.StatusOK, fiber.Map{"user": identity.Attributes()})
}
