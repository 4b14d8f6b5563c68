package handlers

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/docstore"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/entity"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/reports"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/validation"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/workspace"
	"github.com/gofiber/fiber/v2"
)

// RenovationHandler serves the state transitions of the renovation
// collections that are more than a plain field edit.
type RenovationHandler struct {
	workspaces *workspace.Manager
	validate   *validation.Validator
	now        func() time.Time
}

func NewRenovationHandler(workspaces *workspace.Manager, validate *validation.Validator) *RenovationHandler {
	return &RenovationHandler{workspaces: workspaces, validate: validate, now: time.Now}
}

func (h *RenovationHandler) CompleteTask(c *fiber.Ctx) error {
	ws, err := currentWorkspace(c, h.workspaces)
	if err != nil {
		return respondError(c, err)
	}
	task, err := ws.Tasks.Update(c.UserContext(), c.Params("id"), docstore.Record{"status": models.TaskCompleted})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(task)
}

func (h *RenovationHandler) MarkSchedulePaid(c *fiber.Ctx) error {
	ws, err := currentWorkspace(c, h.workspaces)
	if err != nil {
		return respondError(c, err)
	}
	schedule, err := ws.Schedules.Update(c.UserContext(), c.Params("id"), docstore.Record{"status": models.SchedulePaid})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(schedule)
}

func (h *RenovationHandler) ReplyMessage(c *fiber.Ctx) error {
	ws, err := currentWorkspace(c, h.workspaces)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.ReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Reply = validation.SanitizeString(req.Reply)
	if err := h.validate.Struct(req); err != nil {
		return respondError(c, err)
	}

	msg, err := ws.Messages.Update(c.UserContext(), c.Params("id"), docstore.Record{
		"reply":     req.Reply,
		"repliedAt": h.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(msg)
}

// PutBudget sets the allocation of a category, creating its row on first use.
func (h *RenovationHandler) PutBudget(c *fiber.Ctx) error {
	ws, err := currentWorkspace(c, h.workspaces)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.BudgetRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	budget := models.Budget{Key: validation.SanitizeString(c.Params("key")), Allocated: req.Allocated}
	if err := h.validate.Struct(budget); err != nil {
		return respondError(c, err)
	}

	existing, ok := ws.Budgets.Find(func(b models.Budget) bool { return b.Key == budget.Key })
	if !ok {
		created, err := ws.Budgets.Create(c.UserContext(), budget)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	}

	canonical, err := entity.ToRecord(budget)
	if err != nil {
		return respondError(c, err)
	}
	updated, err := ws.Budgets.Update(c.UserContext(), existing.ID, docstore.Record{"allocated": canonical["allocated"]})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(updated)
}

func (h *RenovationHandler) WorkerSummary(c *fiber.Ctx) error {
	ws, err := currentWorkspace(c, h.workspaces)
	if err != nil {
		return respondError(c, err)
	}
	worker, ok := ws.Workers.Get(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "Worker not found")
	}
	return c.JSON(reports.WorkerSummary(worker, ws.Payments.All(), ws.Tasks.All(), ws.Schedules.All(), h.now()))
}
