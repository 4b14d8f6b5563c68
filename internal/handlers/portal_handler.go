package handlers

import (
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/reports"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/tenant"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/validation"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/workspace"
	"github.com/gofiber/fiber/v2"
)

var (
	errWorkerGone = errors.New("worker record no longer exists")
	errMemberGone = errors.New("member record no longer exists")
)

// PortalHandler serves the self-service views of workers and society
// members. Every route is limited to records of the logged-in subject.
type PortalHandler struct {
	workspaces *workspace.Manager
	documents  *DocumentHandler
	validate   *validation.Validator
	now        func() time.Time
}

func NewPortalHandler(workspaces *workspace.Manager, documents *DocumentHandler, validate *validation.Validator) *PortalHandler {
	return &PortalHandler{workspaces: workspaces, documents: documents, validate: validate, now: time.Now}
}

func (h *PortalHandler) worker(c *fiber.Ctx) (*workspace.Workspace, models.Worker, error) {
	ws, err := currentWorkspace(c, h.workspaces)
	if err != nil {
		return nil, models.Worker{}, err
	}
	w, ok := ws.Workers.Get(tenant.GetSubject(c))
	if !ok {
		return nil, models.Worker{}, errWorkerGone
	}
	return ws, w, nil
}

// WorkerHome returns the worker's profile with derived payment totals and
// their tasks, payments and upcoming instalments.
func (h *PortalHandler) WorkerHome(c *fiber.Ctx) error {
	ws, w, err := h.worker(c)
	if err != nil {
		return portalError(c, err)
	}
	return c.JSON(reports.WorkerSummary(w, ws.Payments.All(), ws.Tasks.All(), ws.Schedules.All(), h.now()))
}

func (h *PortalHandler) WorkerDocuments(c *fiber.Ctx) error {
	ws, w, err := h.worker(c)
	if err != nil {
		return portalError(c, err)
	}
	docs := ws.Documents.Where(func(d models.Document) bool { return d.VisibleTo(w.ID) })
	for i := range docs {
		docs[i].DataURL = ""
	}
	return c.JSON(docs)
}

func (h *PortalHandler) WorkerDocumentContent(c *fiber.Ctx) error {
	ws, w, err := h.worker(c)
	if err != nil {
		return portalError(c, err)
	}
	doc, ok := ws.Documents.Get(c.Params("id"))
	if !ok || !doc.VisibleTo(w.ID) {
		return fail(c, fiber.StatusNotFound, "Document not found")
	}
	return h.documents.sendContent(c, doc)
}

func (h *PortalHandler) WorkerMessages(c *fiber.Ctx) error {
	ws, w, err := h.worker(c)
	if err != nil {
		return portalError(c, err)
	}
	return c.JSON(ws.Messages.Where(func(m models.Message) bool { return m.WorkerID == w.ID }))
}

func (h *PortalHandler) SendMessage(c *fiber.Ctx) error {
	ws, w, err := h.worker(c)
	if err != nil {
		return portalError(c, err)
	}
	var req dto.MessageRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	msg := models.Message{
		WorkerID:  w.ID,
		Text:      validation.SanitizeString(req.Text),
		Timestamp: h.now().UTC(),
	}
	if err := h.validate.Struct(msg); err != nil {
		return respondError(c, err)
	}
	created, err := ws.Messages.Create(c.UserContext(), msg)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *PortalHandler) member(c *fiber.Ctx) (*workspace.Workspace, models.Member, error) {
	ws, err := currentWorkspace(c, h.workspaces)
	if err != nil {
		return nil, models.Member{}, err
	}
	m, ok := ws.Members.Get(tenant.GetSubject(c))
	if !ok {
		return nil, models.Member{}, errMemberGone
	}
	return ws, m, nil
}

func (h *PortalHandler) MemberHome(c *fiber.Ctx) error {
	ws, m, err := h.member(c)
	if err != nil {
		return portalError(c, err)
	}
	return c.JSON(fiber.Map{
		"member":      m,
		"notices":     ws.Notices.All(),
		"maintenance": ws.Maintenance.Where(func(b models.MaintenanceBill) bool { return b.Flat == m.Flat }),
	})
}

func (h *PortalHandler) MemberNotices(c *fiber.Ctx) error {
	ws, _, err := h.member(c)
	if err != nil {
		return portalError(c, err)
	}
	return c.JSON(ws.Notices.All())
}

func (h *PortalHandler) MemberComplaints(c *fiber.Ctx) error {
	ws, m, err := h.member(c)
	if err != nil {
		return portalError(c, err)
	}
	return c.JSON(ws.Complaints.Where(func(cp models.Complaint) bool { return cp.MemberID == m.ID }))
}

// FileComplaint opens a complaint for the member's own flat.
func (h *PortalHandler) FileComplaint(c *fiber.Ctx) error {
	ws, m, err := h.member(c)
	if err != nil {
		return portalError(c, err)
	}
	var body models.Complaint
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	complaint := models.Complaint{
		MemberID: m.ID,
		Flat:     m.Flat,
		Type:     validation.SanitizeString(body.Type),
		Desc:     validation.SanitizeString(body.Desc),
		Status:   models.ComplaintOpen,
	}
	if err := h.validate.Struct(complaint); err != nil {
		return respondError(c, err)
	}
	created, err := ws.Complaints.Create(c.UserContext(), complaint)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// portalError reports a logged-in subject whose record has been deleted as
// an ended login rather than a server fault.
func portalError(c *fiber.Ctx, err error) error {
	if errors.Is(err, errWorkerGone) || errors.Is(err, errMemberGone) {
		return fail(c, fiber.StatusForbidden, err.Error())
	}
	return respondError(c, err)
}
