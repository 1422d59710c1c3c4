package blobstore

import (
	"context"
	"fmt"
	"time"

	"intake/internal/config"
)

// SignedURL is a time-limited retrieval link for a stored object.
type SignedURL struct {
	URL       string
	ExpiresAt time.Time
}

// Client stores, moves, signs, and deletes document blobs. Put overwrites
// on conflict so a retried upload is safe to repeat.
type Client interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
	Move(ctx context.Context, oldPath, newPath string) error
	Sign(ctx context.Context, path string, ttl time.Duration) (SignedURL, error)
	Delete(ctx context.Context, path string) error
	// Bucket names the logical container objects land in.
	Bucket() string
	Close() error
}

// New builds the Client selected by configuration.
func New(ctx context.Context, cfg *config.Config) (Client, error) {
	switch cfg.Storage.Backend {
	case "gcs":
		return NewGCS(ctx, cfg.Storage.Bucket)
	case "local":
		return NewLocal(cfg.Storage.LocalDir, cfg.Storage.LocalSignSecret)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
