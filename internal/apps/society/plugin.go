// Package society mounts the society management module and the member portal.
package society

import (
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

func (p *Plugin) ID() string { return "society" }

func (p *Plugin) RegisterRoutes(router fiber.Router, deps apps.Deps) {
	wm, v := deps.Workspaces, deps.Validator
	enabled := middleware.RequireFeature(deps.Registry, tenant.FeatureSociety)
	manage := middleware.RequireSection(session.SectionSociety)
	stepUp := middleware.RequireStepUp(deps.Registry)

	members := handlers.NewResource(wm, v, func(ws *workspace.Workspace) *entity.Store[models.Member] { return ws.Members },
		handlers.WithDefaults(func(m *models.Member) {
			if m.Status == "" {
				m.Status = "active"
			}
		}))
	parking := handlers.NewResource(wm, v, func(ws *workspace.Workspace) *entity.Store[models.ParkingSlot] { return ws.Parking })
	notices := handlers.NewResource(wm, v, func(ws *workspace.Workspace) *entity.Store[models.Notice] { return ws.Notices })
	complaints := handlers.NewResource(wm, v, func(ws *workspace.Workspace) *entity.Store[models.Complaint] { return ws.Complaints },
		handlers.WithDefaults(func(c *models.Complaint) {
			if c.Status == "" {
				c.Status = models.ComplaintOpen
			}
		}))
	vendors := handlers.NewResource(wm, v, func(ws *workspace.Workspace) *entity.Store[models.Vendor] { return ws.Vendors })
	maintenance := handlers.NewResource(wm, v, func(ws *workspace.Workspace) *entity.Store[models.MaintenanceBill] { return ws.Maintenance })

	society := handlers.NewSocietyHandler(wm)
	portal := handlers.NewPortalHandler(wm, nil, v)

	members.Mount(router.Group("/members", enabled, manage), stepUp)
	parking.Mount(router.Group("/parking", enabled, manage), stepUp)
	notices.Mount(router.Group("/notices", enabled, manage), stepUp)
	vendors.Mount(router.Group("/vendors", enabled, manage), stepUp)

	g := router.Group("/complaints", enabled, manage)
	g.Post("/:id/resolve", society.ResolveComplaint)
	complaints.Mount(g, stepUp)

	g = router.Group("/maintenance", enabled, manage)
	g.Post("/:id/mark-paid", society.MarkMaintenancePaid)
	maintenance.Mount(g, stepUp)

	router.Group("/society", enabled, manage).Get("/summary", society.Summary)

	g = router.Group("/member-portal", middleware.RequireFeature(deps.Registry, tenant.FeatureMemberPortal), middleware.RequireSection(session.SectionMember))
	g.Get("/me", portal.MemberHome)
	g.Get("/notices", portal.MemberNotices)
	g.Get("/complaints", portal.MemberComplaints)
	g.Post("/complaints", portal.FileComplaint)
}
