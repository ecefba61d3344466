package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	cfg "github.com/maheshrc27/omni-publisher/configs"
)

var ErrObjectNotFound = errors.New("object not found")

// presignExpiry covers the slowest remote pull (Meta polls for up to ~5 minutes).
const presignExpiry = 2 * time.Hour

// BlobStore is the object storage holding uploaded videos.
type BlobStore interface {
	// Fetch downloads key into the local file dst.
	Fetch(ctx context.Context, key, dst string) error
	Store(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	// URL returns an address remote platforms can pull the object from.
	URL(ctx context.Context, key string) (string, error)
}

// NewBlobStore builds the backend selected by BLOB_BACKEND.
func NewBlobStore(ctx context.Context, c cfg.Config) (BlobStore, error) {
	switch strings.ToLower(c.BlobBackend) {
	case "", "s3":
		return NewS3Store(ctx, c.S3, c.MediaPublicBaseURL)
	case "minio":
		return NewMinioStore(ctx, c.Minio, c.MediaPublicBaseURL)
	default:
		return nil, fmt.Errorf("unknown blob backend %q", c.BlobBackend)
	}
}

func publicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
