package ports

import (
	"context"
	"io"
	"time"
)

// BlobStore is the object store capability. Failures are *blob.Error values.
type BlobStore interface {
	// Upload stores body under key and returns the path the store assigned.
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	CreateSignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	// Remove deletes keys; keys that are already absent are not an error.
	Remove(ctx context.Context, keys ...string) error
}
