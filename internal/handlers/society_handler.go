package handlers

import (
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/docstore"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/reports"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/workspace"
	"github.com/gofiber/fiber/v2"
)

type SocietyHandler struct {
	workspaces *workspace.Manager
}

func NewSocietyHandler(workspaces *workspace.Manager) *SocietyHandler {
	return &SocietyHandler{workspaces: workspaces}
}

func (h *SocietyHandler) ResolveComplaint(c *fiber.Ctx) error {
	ws, err := currentWorkspace(c, h.workspaces)
	if err != nil {
		return respondError(c, err)
	}
	complaint, err := ws.Complaints.Update(c.UserContext(), c.Params("id"), docstore.Record{"status": models.ComplaintResolved})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(complaint)
}

func (h *SocietyHandler) MarkMaintenancePaid(c *fiber.Ctx) error {
	ws, err := currentWorkspace(c, h.workspaces)
	if err != nil {
		return respondError(c, err)
	}
	bill, err := ws.Maintenance.Update(c.UserContext(), c.Params("id"), docstore.Record{"paid": true})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(bill)
}

func (h *SocietyHandler) Summary(c *fiber.Ctx) error {
	ws, err := currentWorkspace(c, h.workspaces)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reports.BuildSocietySummary(
		ws.Members.All(), ws.Notices.All(), ws.Vendors.All(),
		ws.Parking.All(), ws.Complaints.All(), ws.Maintenance.All(),
	))
}
