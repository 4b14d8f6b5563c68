package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/blob"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/validation"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/workspace"
	"github.com/gofiber/fiber/v2"
)

const downloadLinkExpiry = 15 * time.Minute

type DocumentHandler struct {
	workspaces *workspace.Manager
	documents  *services.DocumentService
	validate   *validation.Validator
	invoices   *Resource[models.Invoice]
}

func NewDocumentHandler(workspaces *workspace.Manager, documents *services.DocumentService, validate *validation.Validator, invoices *Resource[models.Invoice]) *DocumentHandler {
	return &DocumentHandler{workspaces: workspaces, documents: documents, validate: validate, invoices: invoices}
}

// Upload stores every file of a multipart request under the "files" field.
// Each file gets its own result; the response is 201 when at least one file
// was stored.
func (h *DocumentHandler) Upload(c *fiber.Ctx) error {
	ws, err := currentWorkspace(c, h.workspaces)
	if err != nil {
		return respondError(c, err)
	}
	form, err := c.MultipartForm()
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Expected a multipart form")
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		headers = form.File["file"]
	}
	if len(headers) == 0 {
		return fail(c, fiber.StatusBadRequest, "No files were uploaded")
	}

	visible := formValue(form, "visibleToWorkers") == "true"
	assigned := splitList(formValue(form, "assignedWorkers"))

	resp := dto.UploadResponse{Results: make([]dto.UploadResult, len(headers))}
	files := make([]services.Upload, len(headers))
	readErrs := make([]error, len(headers))
	for i, fh := range headers {
		data, err := readFile(fh, h.documents.Policy().MaxBytes)
		files[i] = services.Upload{
			Name:             validation.SanitizeString(fh.Filename),
			ContentType:      fh.Header.Get(fiber.HeaderContentType),
			Data:             data,
			VisibleToWorkers: visible,
			AssignedWorkers:  assigned,
		}
		readErrs[i] = err
	}

	docs, errs := h.documents.UploadAll(c.UserContext(), ws, files)
	for i := range files {
		result := dto.UploadResult{Name: files[i].Name}
		err := readErrs[i]
		if err == nil {
			err = errs[i]
		}
		if err != nil {
			result.Error = uploadError(err)
		} else {
			result.ID = docs[i].ID
			result.OK = true
		}
		if result.OK {
			resp.Uploaded++
		} else {
			resp.Failed++
		}
		resp.Results[i] = result
	}

	status := fiber.StatusCreated
	if resp.Uploaded == 0 {
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(resp)
}

// Content streams the stored bytes of a document.
func (h *DocumentHandler) Content(c *fiber.Ctx) error {
	ws, err := currentWorkspace(c, h.workspaces)
	if err != nil {
		return respondError(c, err)
	}
	doc, ok := ws.Documents.Get(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "Document not found")
	}
	return h.sendContent(c, doc)
}

// Link returns a presigned URL for offloaded content.
func (h *DocumentHandler) Link(c *fiber.Ctx) error {
	ws, err := currentWorkspace(c, h.workspaces)
	if err != nil {
		return respondError(c, err)
	}
	doc, ok := ws.Documents.Get(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "Document not found")
	}
	url, err := h.documents.DownloadURL(c.UserContext(), doc, downloadLinkExpiry)
	if errors.Is(err, blob.ErrUnsupported) {
		return fail(c, fiber.StatusNotFound, "Document has no direct link, use the content route")
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"url": url, "expires_in": int(downloadLinkExpiry.Seconds())})
}

func (h *DocumentHandler) sendContent(c *fiber.Ctx, doc models.Document) error {
	data, contentType, err := h.documents.Content(c.UserContext(), doc)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+strings.ReplaceAll(doc.Name, `"`, "")+`"`)
	return c.Send(data)
}

func (h *DocumentHandler) Delete(c *fiber.Ctx) error {
	ws, err := currentWorkspace(c, h.workspaces)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.documents.Delete(c.UserContext(), ws, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateInvoice accepts either a JSON invoice or a multipart form with the
// invoice fields and an optional "image" file.
func (h *DocumentHandler) CreateInvoice(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return h.invoices.Create(c)
	}
	ws, err := currentWorkspace(c, h.workspaces)
	if err != nil {
		return respondError(c, err)
	}

	var amount models.Amount
	if err := amount.UnmarshalJSON([]byte(formValue(form, "amount"))); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid field values")
	}
	invoice := models.Invoice{
		Vendor: validation.SanitizeString(formValue(form, "vendor")),
		Amount: amount,
		Date:   validation.SanitizeString(formValue(form, "date")),
	}
	if err := h.validate.Struct(invoice); err != nil {
		return respondError(c, err)
	}

	if images := form.File["image"]; len(images) > 0 {
		data, err := readFile(images[0], h.documents.Policy().MaxBytes)
		if err != nil {
			return respondError(c, err)
		}
		invoice.Image, invoice.ImageType, err = h.documents.InvoiceImage(images[0].Filename, images[0].Header.Get(fiber.HeaderContentType), data)
		if err != nil {
			return respondError(c, err)
		}
	}

	created, err := ws.Invoices.Create(c.UserContext(), invoice)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func formValue(form *multipart.Form, key string) string {
	if vals := form.Value[key]; len(vals) > 0 {
		return strings.TrimSpace(vals[0])
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// readFile reads at most limit+1 bytes so the size check sees oversize files
// without loading them whole.
func readFile(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if limit <= 0 {
		return io.ReadAll(f)
	}
	return io.ReadAll(io.LimitReader(f, limit+1))
}
