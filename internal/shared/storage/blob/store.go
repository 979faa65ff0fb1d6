package blob

import (
	"context"
	"io"
	"time"
)

// Store defines the contract for the binary object store holding raw uploads.
//
// Clients upload and download directly via presigned URLs; the service itself
// only verifies existence, reads content for local OCR, and deletes objects.
type Store interface {
	PresignUpload(ctx context.Context, key, contentType string, expires time.Duration) (string, error)
	PresignDownload(ctx context.Context, key string, expires time.Duration) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
