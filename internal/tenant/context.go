package tenant

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Locals keys set by the auth and tenant middleware.
const (
	LocalTenantID = "tenant_id"
	LocalUser     = "user"
	LocalSession  = "session"
)

// GetTenantID extracts the tenant_id from Fiber context locals.
func GetTenantID(c *fiber.Ctx) string {
	if id, ok := c.Locals(LocalTenantID).(string); ok {
		return id
	}
	return ""
}

// Claims returns the verified JWT claims of the request.
func Claims(c *fiber.Ctx) (jwt.MapClaims, error) {
	token, ok := c.Locals(LocalUser).(*jwt.Token)
	if !ok || token == nil {
		return nil, errors.New("invalid token in context")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

func claim(c *fiber.Ctx, key string) string {
	claims, err := Claims(c)
	if err != nil {
		return ""
	}
	v, _ := claims[key].(string)
	return v
}

// GetSubject is the worker id, member id or account id behind the token.
func GetSubject(c *fiber.Ctx) string { return claim(c, "sub") }

func GetRole(c *fiber.Ctx) string { return claim(c, "role") }

func GetSessionID(c *fiber.Ctx) string { return claim(c, "sid") }
