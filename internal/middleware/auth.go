package middleware

import (
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/tenant"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
)

func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		ContextKey: tenant.LocalUser,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return deny(c, fiber.StatusUnauthorized, "Unauthorized: invalid or expired token")
		},
	})
}

// TokenTenant binds the request to the tenant named in the verified token.
// A tenant header that disagrees with the token is rejected.
func TokenTenant(registry *tenant.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := tenant.Claims(c)
		if err != nil {
			return deny(c, fiber.StatusUnauthorized, "Unauthorized")
		}
		tenantID, _ := claims["tenant_id"].(string)
		if tenantID == "" || !registry.Exists(tenantID) {
			return deny(c, fiber.StatusUnauthorized, "Token is not bound to a known tenant")
		}
		if header := c.Get(HeaderTenantID); header != "" && header != tenantID {
			return deny(c, fiber.StatusForbidden, "Token belongs to another tenant")
		}
		c.Locals(tenant.LocalTenantID, tenantID)
		return c.Next()
	}
}
