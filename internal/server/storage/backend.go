package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/jobhub/internal/server/config"
)

// Backend is a physical store for asset bytes. Keys are slash-separated and
// identical across implementations.
type Backend interface {
	Name() string
	// Put stores data under key. It must not silently replace an existing object
	// where the backend can detect one.
	Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error
	// URL returns a reachable address for key. expiry applies to signed URLs only.
	URL(ctx context.Context, key string, expiry time.Duration) (string, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// NewBackend builds the backend selected by cfg.StorageBackend.
func NewBackend(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.StorageBackend {
	case config.StorageLocal:
		return NewLocalBackend(cfg.LocalStorageRoot, cfg.LocalBaseURL)
	case config.StorageS3:
		return NewS3Backend(ctx, S3Options{
			Region:        cfg.S3Region,
			AccessKey:     cfg.S3RootUser,
			SecretKey:     cfg.S3RootPassword,
			Endpoint:      cfg.S3BaseEndpoint,
			Bucket:        cfg.S3Bucket,
			PublicBaseURL: cfg.S3PublicBaseURL,
			UsePathStyle:  cfg.S3UsePathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
