package handlers

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/reports"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/workspace"
	"github.com/gofiber/fiber/v2"
)

// ReportHandler serves read-only rollups computed from the current snapshots.
type ReportHandler struct {
	workspaces *workspace.Manager
	now        func() time.Time
}

func NewReportHandler(workspaces *workspace.Manager) *ReportHandler {
	return &ReportHandler{workspaces: workspaces, now: time.Now}
}

func (h *ReportHandler) serve(build func(ws *workspace.Workspace) any) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ws, err := currentWorkspace(c, h.workspaces)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(build(ws))
	}
}

func (h *ReportHandler) Register(router fiber.Router) {
	router.Get("/dashboard", h.serve(func(ws *workspace.Workspace) any {
		return reports.BuildDashboard(ws.Materials.All(), ws.Payments.All(), ws.Workers.All(), ws.Ledger.All())
	}))
	router.Get("/categories", h.serve(func(ws *workspace.Workspace) any {
		return reports.CategoryTotals(ws.Materials.All())
	}))
	router.Get("/workers", h.serve(func(ws *workspace.Workspace) any {
		return reports.WorkerPayments(ws.Payments.All(), ws.Workers.All())
	}))
	router.Get("/ledger", h.serve(func(ws *workspace.Workspace) any {
		return reports.LedgerBalance(ws.Ledger.All())
	}))
	router.Get("/budgets", h.serve(func(ws *workspace.Workspace) any {
		return reports.BudgetVsActual(ws.Budgets.All(), ws.Materials.All())
	}))
	router.Get("/progress", h.serve(func(ws *workspace.Workspace) any {
		return reports.TaskProgress(ws.Tasks.All())
	}))
	router.Get("/schedules", h.serve(func(ws *workspace.Workspace) any {
		return reports.ScheduleSummary(ws.Schedules.All(), h.now())
	}))
	router.Get("/work", h.serve(func(ws *workspace.Workspace) any {
		return reports.BuildWorkProgress(ws.Workers.All(), ws.Payments.All(), ws.Materials.All())
	}))
}
