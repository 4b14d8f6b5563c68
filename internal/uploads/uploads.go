// Package uploads validates uploaded files and turns them into document
// records: a data URL for the content and a table preview for spreadsheets.
package uploads

import (
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

var (
	ErrEmpty          = errors.New("file is empty")
	ErrTooLarge       = errors.New("file too large")
	ErrTypeNotAllowed = errors.New("file type not allowed")
	ErrUnreadable     = errors.New("failed to process spreadsheet")
)

const (
	mimeOctetStream = "application/octet-stream"
	mimeCSV         = "text/csv"
)

var allowedTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/gif",
	"image/webp",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	mimeCSV,
	// Spreadsheets often arrive without a specific type.
	mimeOctetStream,
}

var extensionTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"csv":  mimeCSV,
}

func extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// ResolveMimeType trusts the declared type unless it is missing or generic,
// in which case the file extension decides.
func ResolveMimeType(declared, filename string) string {
	declared = strings.ToLower(strings.TrimSpace(strings.SplitN(declared, ";", 2)[0]))
	if declared != "" && declared != mimeOctetStream {
		return declared
	}
	if byExt, ok := extensionTypes[extension(filename)]; ok {
		return byExt
	}
	return declared
}

// FileType is the coarse label shown next to a document.
func FileType(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return "Image"
	case mimeType == "application/pdf":
		return "PDF"
	case mimeType == "application/msword" || strings.Contains(mimeType, "wordprocessingml"):
		return "Word"
	case strings.Contains(mimeType, "sheet") || strings.Contains(mimeType, "excel") || mimeType == mimeCSV:
		return "Excel"
	default:
		return "Document"
	}
}

func IsSpreadsheet(mimeType, filename string) bool {
	if FileType(mimeType) == "Excel" {
		return true
	}
	switch extension(filename) {
	case "xls", "xlsx", "csv":
		return true
	}
	return false
}

func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL splits a base64 data URL into its type and content.
func DecodeDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, errors.New("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return "", nil, errors.New("not a base64 data URL")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data URL: %w", err)
	}
	return strings.TrimSuffix(meta, ";base64"), data, nil
}

// Policy holds the upload limits.
type Policy struct {
	MaxBytes    int64
	PreviewRows int
}

// Prepared is a validated upload ready to be stored.
type Prepared struct {
	Name     string
	MimeType string
	FileType string
	Data     []byte
	Headers  []string
	Rows     []map[string]string
}

func (p *Prepared) Size() int64 { return int64(len(p.Data)) }

// Prepare checks size and type, then parses a preview for spreadsheets. A
// spreadsheet that cannot be parsed is rejected.
func (p Policy) Prepare(name, declaredType string, data []byte) (*Prepared, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if p.MaxBytes > 0 && int64(len(data)) > p.MaxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d KB", ErrTooLarge, name, p.MaxBytes/1024)
	}
	mimeType := ResolveMimeType(declaredType, name)
	if !slices.Contains(allowedTypes, mimeType) {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotAllowed, name)
	}

	out := &Prepared{
		Name:     name,
		MimeType: mimeType,
		FileType: FileType(mimeType),
		Data:     data,
	}
	if IsSpreadsheet(mimeType, name) {
		headers, rows, err := ParseSheet(name, mimeType, data, p.PreviewRows)
		if err != nil {
			return nil, fmt.Errorf("%w %s: %v", ErrUnreadable, name, err)
		}
		out.Headers, out.Rows = headers, rows
	}
	return out, nil
}
