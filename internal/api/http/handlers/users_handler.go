package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/darsni/backend/internal/api/dto"
	"github.com/darsni/backend/internal/auth"
	"github.com/darsni/backend/internal/domain"
	"github.com/darsni/backend/internal/repository"
	"github.com/darsni/backend/internal/service"
	apperrors "github.com/darsni/backend/pkg/util/errorutil"
)

// UsersHandler exposes profile endpoints.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// Me handles GET /api/users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	identity, found := auth.IdentityFromContext(c)
	if !found {
		return apperrors.NewAuthenticationRequired()
	}

	profile, err := h.users.Sync(c.UserContext(), identity)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, fiber.Map{
		"user":    identity.Attributes(),
		"profile": userResponse(profile),
	})
}

// List handles GET /api/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	filter := repository.UserFilter{
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	if raw := c.Query("role"); raw != "" {
		role := domain.Role(raw)
		if !role.Known() {
			return apperrors.NewValidationError("unknown role", map[string]any{"role": raw})
		}
		filter.Role = &role
	}

	profiles, err := h.users.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	out := make([]dto.UserResponse, 0, len(profiles))
	for i := range profiles {
		out = append(out, userResponse(&profiles[i]))
	}
	return ok(c, http.StatusOK, fiber.Map{"users": out})
}

func userResponse(p *domain.UserProfile) dto.UserResponse {
	return dto.UserResponse{
		ID:          p.ID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		PhotoURL:    p.PhotoURL,
		Role:        p.Role.String(),
		LastSeenAt:  p.LastSeenAt,
		CreatedAt:   p.CreatedAt,
	}
}
