package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/apps"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type Handlers struct {
	Auth    *handlers.AuthHandler
	Health  *handlers.HealthHandler
	Session *handlers.SessionHandler
	Metrics fiber.Handler
}

func Setup(app *fiber.App, deps apps.Deps, sessions *session.Manager, h Handlers, plugins []apps.Plugin) {
	if h.Metrics != nil {
		app.Get("/metrics", h.Metrics)
	}

	api := app.Group("/api")

	// General API rate limiter: 120 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               120,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	// Health (no tenant required)
	api.Get("/health", h.Health.Check)

	// Auth: public, tenant from X-Tenant-ID
	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/login", h.Auth.Login)
	auth.Post("/phone-login", h.Auth.PhoneLogin)

	// Everything below needs a valid token and a live session. Public routes
	// above are matched first.
	protected := api.Group("",
		middleware.JWTProtected(deps.Config),
		middleware.TokenTenant(deps.Registry),
		middleware.SessionActive(sessions),
	)
	protected.Post("/auth/logout", h.Auth.Logout)
	protected.Get("/session", h.Session.Get)
	protected.Post("/session/step-up", h.Session.StepUp)

	accounts := protected.Group("/admin", middleware.RequireSection(session.SectionAccounts))
	accounts.Post("/users", h.Auth.CreateUser)

	for _, p := range plugins {
		p.RegisterRoutes(protected, deps)
	}
}
