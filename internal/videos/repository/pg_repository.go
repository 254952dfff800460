package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/streamforge/vodengine/internal/models"
	"github.com/streamforge/vodengine/internal/videos"
	"github.com/streamforge/vodengine/pkg/utils"
)

type videoRepo struct {
	db *sqlx.DB
}

func NewVideoRepo(db *sqlx.DB) videos.Repository {
	return &videoRepo{
		db: db,
	}
}

func (v *videoRepo) CreateVideoRecord(ctx context.Context, record *models.VideoRecord) (*models.VideoRecord, error) {
	created := &models.VideoRecord{}
	if err := v.db.QueryRowxContext(
		ctx,
		createVideoRecordQuery,
		record.Name,
		record.URL,
	).StructScan(created); err != nil {
		return nil, fmt.Errorf("failed to create video record: %w", err)
	}
	return created, nil
}

func (v *videoRepo) FindVideoRecords(ctx context.Context, pq *utils.Pagination) (*models.VideoList, error) {
	var totalCount int
	if err := v.db.GetContext(
		ctx,
		&totalCount,
		getTotalVideoRecordsQuery,
	); err != nil {
		return nil, fmt.Errorf("failed to get total video records count: %w", err)
	}
	if totalCount == 0 {
		return &models.VideoList{
			Videos:     make([]*models.VideoRecord, 0),
			TotalCount: 0,
			Page:       pq.GetPage(),
			PageSize:   pq.GetSize(),
			HasMore:    false,
		}, nil
	}
	rows, err := v.db.QueryxContext(
		ctx,
		getVideoRecordsQuery,
		pq.GetOffset(),
		pq.GetLimit(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get video records: %w", err)
	}
	defer rows.Close()
	var records = make([]*models.VideoRecord, 0, pq.GetSize())
	for rows.Next() {
		var record models.VideoRecord
		if err = rows.StructScan(&record); err != nil {
			return nil, fmt.Errorf("failed to scan video record: %w", err)
		}
		records = append(records, &record)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan video records: %w", err)
	}
	return &models.VideoList{
		Videos:     records,
		TotalCount: totalCount,
		Page:       pq.GetPage(),
		PageSize:   pq.GetSize(),
		HasMore:    utils.GetHasMore(pq.GetPage(), totalCount, pq.GetSize()),
	}, nil
}
