package videos

import (
	"context"

	"github.com/streamforge/vodengine/internal/models"
	"github.com/streamforge/vodengine/pkg/utils"
)

// Enqueuer hands a finalized upload to the transcode queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, job *models.TranscodeJob) error
}

type UseCase interface {
	InitiateUpload(ctx context.Context, input *models.InitiateUploadInput) (*models.MultipartUpload, error)
	GetPartUploadURLs(ctx context.Context, key, uploadID string, parts int) ([]models.PartUploadURL, error)
	CompleteUpload(ctx context.Context, key, uploadID string, parts []models.CompletedPart) (*models.TranscodeJob, error)
	AbortUpload(ctx context.Context, key, uploadID string) error
	ListVideos(ctx context.Context, pagination *utils.Pagination) (*models.VideoList, error)
}
