// Package renovation mounts the renovation dashboard and the worker portal.
package renovation

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/apps"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/entity"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/session"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/tenant"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/workspace"
	"github.com/gofiber/fiber/v2"
)

type Plugin struct{}

func New() *Plugin { return &Plugin{} }

func (p *Plugin) ID() string { return "renovation" }

func (p *Plugin) RegisterRoutes(router fiber.Router, deps apps.Deps) {
	wm, v := deps.Workspaces, deps.Validator
	manage := middleware.RequireSection(session.SectionManagement)
	stepUp := middleware.RequireStepUp(deps.Registry)

	workers := handlers.NewResource(wm, v, func(ws *workspace.Workspace) *entity.Store[models.Worker] { return ws.Workers })
	tasks := handlers.NewResource(wm, v, func(ws *workspace.Workspace) *entity.Store[models.Task] { return ws.Tasks },
		handlers.WithDefaults(func(t *models.Task) {
			if t.Status == "" {
				t.Status = models.TaskPending
			}
		}))
	materials := handlers.NewResource(wm, v, func(ws *workspace.Workspace) *entity.Store[models.Material] { return ws.Materials })
	payments := handlers.NewResource(wm, v, func(ws *workspace.Workspace) *entity.Store[models.Payment] { return ws.Payments })
	invoices := handlers.NewResource(wm, v, func(ws *workspace.Workspace) *entity.Store[models.Invoice] { return ws.Invoices })
	schedules := handlers.NewResource(wm, v, func(ws *workspace.Workspace) *entity.Store[models.Schedule] { return ws.Schedules },
		handlers.WithDefaults(func(s *models.Schedule) {
			if s.Status == "" {
				s.Status = models.SchedulePending
			}
		}))
	ledger := handlers.NewResource(wm, v, func(ws *workspace.Workspace) *entity.Store[models.LedgerEntry] { return ws.Ledger })
	budgets := handlers.NewResource(wm, v, func(ws *workspace.Workspace) *entity.Store[models.Budget] { return ws.Budgets })
	documents := handlers.NewResource(wm, v, func(ws *workspace.Workspace) *entity.Store[models.Document] { return ws.Documents })
	messages := handlers.NewResource(wm, v, func(ws *workspace.Workspace) *entity.Store[models.Message] { return ws.Messages },
		handlers.WithDefaults(func(m *models.Message) {
			if m.Timestamp.IsZero() {
				m.Timestamp = time.Now().UTC()
			}
		}))

	renovation := handlers.NewRenovationHandler(wm, v)
	docs := handlers.NewDocumentHandler(wm, deps.Documents, v, invoices)
	reports := handlers.NewReportHandler(wm)
	portal := handlers.NewPortalHandler(wm, docs, v)

	g := router.Group("/workers", manage)
	g.Get("/:id/summary", renovation.WorkerSummary)
	workers.Mount(g, stepUp)

	g = router.Group("/tasks", manage)
	g.Post("/:id/complete", renovation.CompleteTask)
	tasks.Mount(g, stepUp)

	materials.Mount(router.Group("/materials", manage), stepUp)
	payments.Mount(router.Group("/payments", manage), stepUp)
	ledger.Mount(router.Group("/ledger", manage), stepUp)

	g = router.Group("/invoices", manage)
	g.Get("/", invoices.List)
	g.Get("/:id", invoices.Get)
	g.Post("/", docs.CreateInvoice)
	g.Put("/:id", invoices.Update)
	g.Patch("/:id", invoices.Update)
	g.Delete("/:id", stepUp, invoices.Delete)

	g = router.Group("/schedules", manage)
	g.Post("/:id/mark-paid", renovation.MarkSchedulePaid)
	schedules.Mount(g, stepUp)

	g = router.Group("/messages", manage)
	g.Post("/:id/reply", renovation.ReplyMessage)
	messages.Mount(g, stepUp)

	g = router.Group("/budgets", manage)
	g.Get("/", budgets.List)
	g.Put("/:key", renovation.PutBudget)
	g.Delete("/:id", stepUp, budgets.Delete)

	g = router.Group("/documents", middleware.RequireFeature(deps.Registry, tenant.FeatureDocuments), manage)
	g.Get("/", documents.List)
	g.Post("/", docs.Upload)
	g.Get("/:id", documents.Get)
	g.Get("/:id/content", docs.Content)
	g.Get("/:id/link", docs.Link)
	g.Put("/:id", documents.Update)
	g.Patch("/:id", documents.Update)
	g.Delete("/:id", stepUp, docs.Delete)

	reports.Register(router.Group("/reports", manage))

	g = router.Group("/portal", middleware.RequireFeature(deps.Registry, tenant.FeatureWorkerPortal), middleware.RequireSection(session.SectionPortal))
	g.Get("/me", portal.WorkerHome)
	g.Get("/documents", portal.WorkerDocuments)
	g.Get("/documents/:id/content", portal.WorkerDocumentContent)
	g.Get("/messages", portal.WorkerMessages)
	g.Post("/messages", portal.SendMessage)
}
