package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/darsni/backend/internal/domain"
	apperrors "github.com/darsni/backend/pkg/util/errorutil"
)

// Allows reports whether identity's role is in allowed. No other field is consulted.
func Allows(identity *domain.Identity, allowed ...domain.Role) bool {
	return identity.HasRole(allowed...)
}

// RequireRoles admits the request only if the attached identity holds one of the
// allowed roles. It must run after a required guard.
func RequireRoles(allowed ...domain.Role) fiber.Handler {
	roles := append([]domain.Role(nil), allowed...)

	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewAuthenticationRequired()
		}
		if !Allows(identity, roles...) {
			return apperrors.NewInsufficientPermissions()
		}
		return c.Next()
	}
}

// RequireAdmin admits admins only.
func RequireAdmin() fiber.Handler {
	return RequireRoles(domain.RoleAdmin)
}

// RequireStudent admits students only.
func RequireStudent() fiber.Handler {
	return RequireRoles(domain.RoleStudent)
}

// RequireTeacher admits teachers only.
func RequireTeacher() fiber.Handler {
	return RequireRoles(domain.RoleTeacher)
}
