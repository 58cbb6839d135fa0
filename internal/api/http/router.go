package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-gateway/internal/api/dto"
	"github.com/spec-kit/auth-gateway/internal/api/http/handlers"
	"github.com/spec-kit/auth-gateway/internal/auth"
	"github.com/spec-kit/auth-gateway/internal/validate"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	AuthMiddleware *auth.Middleware
	RateLimit      fiber.Handler
}

// RegisterRoutes wires HTTP routes. Admission control runs before auth
// enforcement; both self-exclude their configured paths.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	if cfg.RateLimit != nil {
		app.Use(cfg.RateLimit)
	}
	if cfg.AuthMiddleware != nil {
		app.Use(cfg.AuthMiddleware.Handle)
	}

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", validate.Body[dto.LoginRequest](), cfg.Auth.Login)
	authGroup.Post("/refresh", validate.Body[dto.RefreshRequest](), cfg.Auth.Refresh)
	authGroup.Get("/me", cfg.Auth.Me)
}
