// Package blob holds uploaded document content outside the document store.
package blob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/config"
)

const (
	// DriverInline keeps content inside the document record as a data URL.
	DriverInline = "inline"
	DriverS3     = "s3"
	DriverMemory = "memory"
)

var (
	ErrNotFound    = errors.New("blob not found")
	ErrUnsupported = errors.New("operation not supported by blob driver")
)

type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, string, error)
	Delete(ctx context.Context, key string) error
	PresignURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Open returns the configured store, or nil for the inline driver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.BlobDriver {
	case "", DriverInline:
		return nil, nil
	case DriverMemory:
		return NewMemory(), nil
	case DriverS3:
		s, err := NewS3(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.BlobDriver)
	}
}
