package videos

import (
	"context"
	"io"
	"time"

	"github.com/streamforge/vodengine/internal/models"
)

type BlobRepository interface {
	CreateMultipartUpload(ctx context.Context, bucket, key string) (string, error)
	GetPartUploadURLs(ctx context.Context, bucket, key, uploadID string, parts int) ([]models.PartUploadURL, error)
	CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts []models.CompletedPart) error
	AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error

	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, int64, error)
	PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error
	DeleteObject(ctx context.Context, bucket, key string) error
	GetSignedReadURL(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}
