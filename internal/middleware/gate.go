package middleware

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/session"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

// SessionActive records activity on the token's session. Sessions idle for
// longer than the timeout are ended and the request is refused.
func SessionActive(sessions *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := sessions.Touch(tenant.GetSessionID(c))
		switch {
		case errors.Is(err, session.ErrExpired):
			return deny(c, fiber.StatusUnauthorized, "Session expired after inactivity, please log in again")
		case err != nil:
			return deny(c, fiber.StatusUnauthorized, "Session not found, please log in again")
		}
		if sess.TenantID != tenant.GetTenantID(c) {
			return deny(c, fiber.StatusUnauthorized, "Session belongs to another tenant")
		}
		c.Locals(tenant.LocalSession, sess)
		return c.Next()
	}
}

// CurrentSession returns the session stored by SessionActive.
func CurrentSession(c *fiber.Ctx) (session.Session, bool) {
	sess, ok := c.Locals(tenant.LocalSession).(session.Session)
	return sess, ok
}

// RequireSection lets the request through when the session role may open
// any of the given sections.
func RequireSection(sections ...session.Section) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, ok := CurrentSession(c)
		if !ok {
			return deny(c, fiber.StatusUnauthorized, "Unauthorized")
		}
		for _, s := range sections {
			if sess.Role.Can(s) {
				return c.Next()
			}
		}
		return deny(c, fiber.StatusForbidden, "Your role cannot access this section")
	}
}

// RequireStepUp guards destructive routes behind the tenant step-up passcode,
// accepted either from the session cache or from the X-Passcode header.
func RequireStepUp(registry *tenant.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sess, ok := CurrentSession(c); ok && sess.StepUp {
			return c.Next()
		}
		if passcode := c.Get(HeaderPasscode); passcode != "" && registry.VerifyStepUp(tenant.GetTenantID(c), passcode) {
			return c.Next()
		}
		return deny(c, fiber.StatusForbidden, "Passcode confirmation required")
	}
}

func RequireFeature(registry *tenant.Registry, feature string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !registry.HasFeature(tenant.GetTenantID(c), feature) {
			return deny(c, fiber.StatusNotFound, "Feature not enabled for this tenant")
		}
		return c.Next()
	}
}
