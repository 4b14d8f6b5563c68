package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/blob"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/uploads"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/workspace"
	"github.com/google/uuid"
)

var (
	ErrDuplicateUpload = errors.New("file already included in this upload")
	ErrNoContent       = errors.New("document has no stored content")
	ErrNotImage        = errors.New("invoice attachment must be an image or PDF")
)

// Upload is one file of a multi-file request.
type Upload struct {
	Name             string
	ContentType      string
	Data             []byte
	VisibleToWorkers bool
	AssignedWorkers  []string
}

type DocumentService struct {
	policy uploads.Policy
	blobs  blob.Store
	now    func() time.Time
}

// NewDocumentService stores content inline as data URLs when blobs is nil.
func NewDocumentService(policy uploads.Policy, blobs blob.Store) *DocumentService {
	return &DocumentService{policy: policy, blobs: blobs, now: time.Now}
}

func (s *DocumentService) Policy() uploads.Policy { return s.policy }

// UploadAll stores every file independently; one failure never aborts the
// others. The returned slice lines up with files, and errs[i] is nil on success.
func (s *DocumentService) UploadAll(ctx context.Context, ws *workspace.Workspace, files []Upload) ([]models.Document, []error) {
	docs := make([]models.Document, len(files))
	errs := make([]error, len(files))
	seen := make(map[string]bool, len(files))

	for i, f := range files {
		key := fmt.Sprintf("%s_%d", f.Name, len(f.Data))
		if seen[key] {
			errs[i] = fmt.Errorf("%w: %s", ErrDuplicateUpload, f.Name)
			continue
		}
		seen[key] = true
		docs[i], errs[i] = s.Upload(ctx, ws, f)
	}
	return docs, errs
}

func (s *DocumentService) Upload(ctx context.Context, ws *workspace.Workspace, f Upload) (models.Document, error) {
	prepared, err := s.policy.Prepare(f.Name, f.ContentType, f.Data)
	if err != nil {
		return models.Document{}, err
	}

	doc := models.Document{
		Name:                prepared.Name,
		MimeType:            prepared.MimeType,
		FileType:            prepared.FileType,
		Size:                prepared.Size(),
		UploadedAt:          s.now().UTC(),
		PreviewTableHeaders: prepared.Headers,
		PreviewTableRows:    prepared.Rows,
		VisibleToWorkers:    f.VisibleToWorkers,
		AssignedWorkers:     f.AssignedWorkers,
	}

	if s.blobs != nil {
		doc.StorageKey = path.Join(ws.TenantID, models.CollectionDocuments, uuid.NewString()+"-"+path.Base(prepared.Name))
		if err := s.blobs.Put(ctx, doc.StorageKey, prepared.MimeType, prepared.Data); err != nil {
			return models.Document{}, fmt.Errorf("store %s: %w", prepared.Name, err)
		}
	} else {
		doc.DataURL = uploads.DataURL(prepared.MimeType, prepared.Data)
	}

	created, err := ws.Documents.Create(ctx, doc)
	if err != nil {
		s.dropBlob(ctx, doc.StorageKey)
		return models.Document{}, err
	}
	return created, nil
}

// Content returns the bytes and type of a stored document.
func (s *DocumentService) Content(ctx context.Context, doc models.Document) ([]byte, string, error) {
	switch {
	case doc.StorageKey != "" && s.blobs != nil:
		data, contentType, err := s.blobs.Get(ctx, doc.StorageKey)
		if err != nil {
			return nil, "", err
		}
		if contentType == "" {
			contentType = doc.MimeType
		}
		return data, contentType, nil
	case doc.DataURL != "":
		mime, data, err := uploads.DecodeDataURL(doc.DataURL)
		return data, mime, err
	default:
		return nil, "", ErrNoContent
	}
}

// DownloadURL returns a short-lived direct link for offloaded content. Inline
// documents and stores without signing report blob.ErrUnsupported.
func (s *DocumentService) DownloadURL(ctx context.Context, doc models.Document, expiry time.Duration) (string, error) {
	if doc.StorageKey == "" || s.blobs == nil {
		return "", blob.ErrUnsupported
	}
	return s.blobs.PresignURL(ctx, doc.StorageKey, expiry)
}

// Delete removes the record and then its offloaded content, if any.
func (s *DocumentService) Delete(ctx context.Context, ws *workspace.Workspace, id string) error {
	doc, found := ws.Documents.Get(id)
	if err := ws.Documents.Delete(ctx, id); err != nil {
		return err
	}
	if found {
		s.dropBlob(ctx, doc.StorageKey)
	}
	return nil
}

// InvoiceImage validates an invoice attachment and returns it as a data URL.
func (s *DocumentService) InvoiceImage(name, contentType string, data []byte) (string, string, error) {
	prepared, err := s.policy.Prepare(name, contentType, data)
	if err != nil {
		return "", "", err
	}
	if prepared.FileType != "Image" && prepared.FileType != "PDF" {
		return "", "", fmt.Errorf("%w: %s", ErrNotImage, name)
	}
	return uploads.DataURL(prepared.MimeType, prepared.Data), prepared.MimeType, nil
}

func (s *DocumentService) dropBlob(ctx context.Context, key string) {
	if key == "" || s.blobs == nil {
		return
	}
	if err := s.blobs.Delete(ctx, key); err != nil && !errors.Is(err, blob.ErrNotFound) {
		slog.Warn("failed to delete document content", "key", key, "error", err)
	}
}
