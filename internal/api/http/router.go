package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/darsni/backend/internal/api/http/handlers"
	"github.com/darsni/backend/internal/auth"
	"github.com/darsni/backend/internal/domain"
	"github.com/darsni/backend/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Sessions    *handlers.SessionHandler
	Users       *handlers.UsersHandler
	Courses     *handlers.CoursesHandler
	Leaderboard *handlers.LeaderboardHandler
	Metrics     *observability.Metrics

	// ProviderGuard resolves identities straight from the identity provider.
	ProviderGuard *auth.Guard
	// CrossCheckGuard decodes a local access credential and cross-checks the provider.
	CrossCheckGuard *auth.Guard
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Handler())

	api := app.Group("/api")
	required := cfg.ProviderGuard.Required()
	optional := cfg.ProviderGuard.Optional()

	authGroup := api.Group("/auth")
	authGroup.Post("/session", required, cfg.Sessions.Start)
	authGroup.Post("/refresh", cfg.Sessions.Refresh)
	authGroup.Get("/verify", cfg.CrossCheckGuard.Required(), cfg.Sessions.Verify)

	users := api.Group("/users", required)
	users.Get("/me", cfg.Users.Me)
	users.Get("/", auth.RequireAdmin(), cfg.Users.List)

	courses := api.Group("/courses")
	courses.Get("/", optional, cfg.Courses.List)
	courses.Get("/:id", optional, cfg.Courses.Get)
	courses.Post("/", required, auth.RequireRoles(domain.RoleTeacher, domain.RoleAdmin), cfg.Courses.Create)
	courses.Put("/:id", required, auth.RequireRoles(domain.RoleTeacher, domain.RoleAdmin), cfg.Courses.Update)
	courses.Delete("/:id", required, auth.RequireAdmin(), cfg.Courses.Delete)
	courses.Post("/:id/progress", required, auth.RequireStudent(), cfg.Courses.RecordProgress)
	courses.Get("/:id/progress", required, auth.RequireStudent(), cfg.Courses.Progress)

	api.Get("/leaderboard", optional, cfg.Leaderboard.Top)
	api.Get("/quotes/random", cfg.Leaderboard.RandomQuote)
}
