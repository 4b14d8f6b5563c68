package middleware

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

const (
	HeaderTenantID = "X-Tenant-ID"
	HeaderPasscode = "X-Passcode"
)

// Paths that don't require tenant identification.
var tenantSkipPaths = []string{
	"/api/health",
	"/metrics",
}

// TenantMiddleware resolves the tenant of unauthenticated requests from the
// X-Tenant-ID header. Requests carrying a bearer token are resolved later
// from the token itself by TokenTenant.
func TenantMiddleware(registry *tenant.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		for _, skip := range tenantSkipPaths {
			if strings.HasPrefix(path, skip) {
				return c.Next()
			}
		}

		tenantID := c.Get(HeaderTenantID)
		if tenantID != "" {
			if !registry.Exists(tenantID) {
				return deny(c, fiber.StatusBadRequest, "Invalid "+HeaderTenantID+": "+tenantID)
			}
			c.Locals(tenant.LocalTenantID, tenantID)
			return c.Next()
		}

		if strings.HasPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ") {
			return c.Next()
		}

		return deny(c, fiber.StatusBadRequest, HeaderTenantID+" header is required")
	}
}

func deny(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}
