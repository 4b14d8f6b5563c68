package handlers

import (
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/session"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/tenant"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/validation"
	"github.com/gofiber/fiber/v2"
)

type SessionHandler struct {
	sessions *session.Manager
	registry *tenant.Registry
	validate *validation.Validator
}

func NewSessionHandler(sessions *session.Manager, registry *tenant.Registry, validate *validation.Validator) *SessionHandler {
	return &SessionHandler{sessions: sessions, registry: registry, validate: validate}
}

func (h *SessionHandler) Get(c *fiber.Ctx) error {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	return c.JSON(dto.SessionResponse{
		ID:           sess.ID,
		Role:         string(sess.Role),
		Subject:      sess.Subject,
		Sections:     services.SectionNames(sess.Role),
		StartedAt:    sess.StartedAt,
		LastActivity: sess.LastActivity,
		StepUp:       sess.StepUp,
		IdleTimeout:  int64(h.sessions.IdleTimeout().Seconds()),
	})
}

// StepUp checks the tenant step-up passcode. With remember set the result
// is kept until the session ends.
func (h *SessionHandler) StepUp(c *fiber.Ctx) error {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	var req dto.StepUpRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return respondError(c, err)
	}

	if !h.registry.VerifyStepUp(sess.TenantID, req.Passcode) {
		return fail(c, fiber.StatusForbidden, "Incorrect passcode")
	}
	if req.Remember {
		if err := h.sessions.GrantStepUp(sess.ID); err != nil {
			return fail(c, fiber.StatusUnauthorized, "Session not found, please log in again")
		}
	}
	return c.JSON(fiber.Map{"verified": true, "remembered": req.Remember})
}
