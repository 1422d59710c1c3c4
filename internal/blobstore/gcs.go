package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GCS stores blobs in a Google Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket string
}

// NewGCS connects to GCS using ambient credentials.
func NewGCS(ctx context.Context, bucket string) (*GCS, error) {
	if bucket == "" {
		return nil, errors.New("gcs bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCS{client: client, bucket: bucket}, nil
}

func (g *GCS) Put(ctx context.Context, path string, data []byte, contentType string) error {
	writer := g.client.Bucket(g.bucket).Object(path).NewWriter(ctx)
	writer.ContentType = contentType
	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("write gcs object %q: %w", path, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize gcs object %q: %w", path, err)
	}
	return nil
}

func (g *GCS) Move(ctx context.Context, oldPath, newPath string) error {
	bucket := g.client.Bucket(g.bucket)
	src := bucket.Object(oldPath)
	dst := bucket.Object(newPath)

	if _, err := dst.CopierFrom(src).Run(ctx); err != nil {
		return fmt.Errorf("copy gcs object %q to %q: %w", oldPath, newPath, err)
	}
	if err := src.Delete(ctx); err != nil {
		return fmt.Errorf("delete gcs object %q after copy: %w", oldPath, err)
	}
	return nil
}

func (g *GCS) Sign(ctx context.Context, path string, ttl time.Duration) (SignedURL, error) {
	expires := time.Now().UTC().Add(ttl)
	url, err := g.client.Bucket(g.bucket).SignedURL(path, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: expires,
	})
	if err != nil {
		return SignedURL{}, fmt.Errorf("sign gcs object %q: %w", path, err)
	}
	return SignedURL{URL: url, ExpiresAt: expires}, nil
}

func (g *GCS) Delete(ctx context.Context, path string) error {
	if err := g.client.Bucket(g.bucket).Object(path).Delete(ctx); err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("delete gcs object %q: %w", path, err)
	}
	return nil
}

// isNotFound covers both the storage sentinel and raw API responses, which
// surface as *googleapi.Error on some code paths.
func isNotFound(err error) bool {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return true
	}
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == 404
}

func (g *GCS) Bucket() string {
	return g.bucket
}

func (g *GCS) Close() error {
	return g.client.Close()
}
