package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/blob"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/entity"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/tenant"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/uploads"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/validation"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/workspace"
	"github.com/gofiber/fiber/v2"
)

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}

// respondError maps service and store errors to HTTP responses. Anything
// unrecognised is logged and reported as a 500 without details.
func respondError(c *fiber.Ctx, err error) error {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Validation failed", Details: verr.Fields,
		})
	case errors.Is(err, entity.ErrNotFound), errors.Is(err, blob.ErrNotFound), errors.Is(err, services.ErrNoContent):
		return fail(c, fiber.StatusNotFound, "Record not found")
	case errors.Is(err, entity.ErrPending):
		return fail(c, fiber.StatusConflict, "Record is still being saved, try again shortly")
	case errors.Is(err, workspace.ErrUnknownTenant):
		return fail(c, fiber.StatusBadRequest, "Unknown tenant")
	case errors.Is(err, uploads.ErrEmpty), errors.Is(err, uploads.ErrTypeNotAllowed), errors.Is(err, uploads.ErrUnreadable),
		errors.Is(err, services.ErrNotImage), errors.Is(err, services.ErrDuplicateUpload):
		return fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, uploads.ErrTooLarge):
		return fail(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		slog.Error("document store timed out", "method", c.Method(), "path", c.Path(), "tenant_id", tenant.GetTenantID(c))
		return fail(c, fiber.StatusGatewayTimeout, "Storage did not respond in time")
	default:
		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "tenant_id", tenant.GetTenantID(c), "error", err)
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}
}

// uploadError is the per-file message shown in a batch upload result.
func uploadError(err error) string {
	switch {
	case errors.Is(err, uploads.ErrEmpty), errors.Is(err, uploads.ErrTooLarge), errors.Is(err, uploads.ErrTypeNotAllowed),
		errors.Is(err, uploads.ErrUnreadable), errors.Is(err, services.ErrDuplicateUpload):
		return err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "storage did not respond in time"
	default:
		slog.Error("document upload failed", "error", err)
		return "upload failed"
	}
}

// currentWorkspace loads the workspace of the request's tenant.
func currentWorkspace(c *fiber.Ctx, workspaces *workspace.Manager) (*workspace.Workspace, error) {
	return workspaces.Get(c.UserContext(), tenant.GetTenantID(c))
}
