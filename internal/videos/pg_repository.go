package videos

import (
	"context"

	"github.com/streamforge/vodengine/internal/models"
	"github.com/streamforge/vodengine/pkg/utils"
)

type Repository interface {
	CreateVideoRecord(ctx context.Context, record *models.VideoRecord) (*models.VideoRecord, error)
	FindVideoRecords(ctx context.Context, pq *utils.Pagination) (*models.VideoList, error)
}
