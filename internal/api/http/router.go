package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/joshliford/amplify-guitar/internal/api/http/handlers"
	"github.com/joshliford/amplify-guitar/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Auth    *handlers.AuthHandler
	Users   *handlers.UsersHandler
	Gate    *auth.Gate
	Policy  *auth.Policy
}

// RegisterRoutes wires the auth gate, the access policy and the HTTP routes.
// The gate runs before the policy so token identity is in place when access
// is decided.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.Gate.Handle)
	app.Use(cfg.Policy.Enforce())

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/api/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	me := app.Group("/api/users/me")
	me.Get("", cfg.Users.Me)
	me.Patch("", cfg.Users.UpdateMe)
	me.Delete("", cfg.Users.DeleteMe)
	me.Post("/xp", cfg.Users.AddXP)
	me.Post("/streak", cfg.Users.IncrementStreak)
}
