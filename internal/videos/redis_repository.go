package videos

import (
	"context"

	"github.com/streamforge/vodengine/internal/models"
)

// QueueRepository is the durable FIFO backing the transcode queue. PushJob
// appends to the tail; PopJob atomically removes the head and returns
// (nil, nil) when the queue is empty.
type QueueRepository interface {
	PushJob(ctx context.Context, queueKey string, job *models.TranscodeJob) error
	PopJob(ctx context.Context, queueKey string) (*models.TranscodeJob, error)
	QueueLen(ctx context.Context, queueKey string) (int64, error)
}
