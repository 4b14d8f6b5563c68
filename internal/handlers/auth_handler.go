package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/tenant"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/validation"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *services.AuthService
	validate    *validation.Validator
}

func NewAuthHandler(authService *services.AuthService, validate *validation.Validator) *AuthHandler {
	return &AuthHandler{authService: authService, validate: validate}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return respondError(c, err)
	}

	resp, err := h.authService.Login(c.UserContext(), tenant.GetTenantID(c), &req)
	if err != nil {
		return authError(c, err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) PhoneLogin(c *fiber.Ctx) error {
	var req dto.PhoneLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return respondError(c, err)
	}

	resp, err := h.authService.PhoneLogin(c.UserContext(), tenant.GetTenantID(c), req.Phone)
	if err != nil {
		return authError(c, err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.authService.Logout(tenant.GetSessionID(c))
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

// CreateUser adds an admin login for the caller's tenant.
func (h *AuthHandler) CreateUser(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return respondError(c, err)
	}

	user, err := h.authService.CreateAdmin(c.UserContext(), tenant.GetTenantID(c), &req)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			return fail(c, fiber.StatusConflict, err.Error())
		}
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func authError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrPhoneNotFound):
		return fail(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrFeatureDisabled):
		return fail(c, fiber.StatusForbidden, err.Error())
	default:
		return respondError(c, err)
	}
}
