package apps

import (
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/tenant"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/validation"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/workspace"
	"github.com/gofiber/fiber/v2"
)

// Deps is what a module needs to serve its routes.
type Deps struct {
	Config     *config.Config
	Registry   *tenant.Registry
	Workspaces *workspace.Manager
	Validator  *validation.Validator
	Documents  *services.DocumentService
}

// Plugin is one dashboard module.
type Plugin interface {
	// ID returns the module identifier used in logs.
	ID() string

	// RegisterRoutes mounts the module's routes on the given Fiber group.
	// The group is already prefixed with /api, authenticated and bound to
	// an active session.
	RegisterRoutes(router fiber.Router, deps Deps)
}
