package outbound

import (
	"context"
	"io"
	"time"
)

// FileStorePort stores submission deliverables.
type FileStorePort interface {
	// Put uploads an object and returns its file reference.
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)

	// GetPresignedURL generates a temporary download URL for a file reference.
	GetPresignedURL(ctx context.Context, ref string, duration time.Duration) (string, error)
}
