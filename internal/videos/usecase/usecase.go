package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/streamforge/vodengine/internal/config"
	"github.com/streamforge/vodengine/internal/models"
	"github.com/streamforge/vodengine/internal/videos"
	"github.com/streamforge/vodengine/pkg/logger"
	"github.com/streamforge/vodengine/pkg/utils"
)

var videoExtPattern = regexp.MustCompile(`.+\.(mp4|mkv|avi|mov|wmv|flv|webm|m4v|mpeg|mpg|3gp|ogv|vob|ts|mxf)$`)

type videoUC struct {
	cfg       *config.Config
	videoRepo videos.Repository
	blobRepo  videos.BlobRepository
	enqueuer  videos.Enqueuer
	logger    logger.Logger
}

func NewVideoUseCase(
	cfg *config.Config,
	videoRepo videos.Repository,
	blobRepo videos.BlobRepository,
	enqueuer videos.Enqueuer,
	log logger.Logger,
) videos.UseCase {
	return &videoUC{
		cfg:       cfg,
		videoRepo: videoRepo,
		blobRepo:  blobRepo,
		enqueuer:  enqueuer,
		logger:    log,
	}
}

func (v *videoUC) InitiateUpload(ctx context.Context, input *models.InitiateUploadInput) (*models.MultipartUpload, error) {
	if input == nil {
		return nil, fmt.Errorf("invalid input: input is nil")
	}
	if err := utils.ValidateStruct(ctx, input); err != nil {
		v.logger.Errorf("InitiateUpload - ValidateStruct error: %v", err)
		return nil, fmt.Errorf("invalid input: %v", err)
	}
	if !videoExtPattern.MatchString(strings.ToLower(input.FileName)) {
		return nil, fmt.Errorf("invalid file format: %s", input.FileName)
	}

	ext := filepath.Ext(input.FileName)
	displayName := strings.TrimSuffix(filepath.Base(input.FileName), ext)
	key := models.NewJobKey(displayName, ext)

	v.logger.Infof("Initiating multipart upload for key: %s", key)
	uploadID, err := v.blobRepo.CreateMultipartUpload(ctx, v.cfg.S3.RawBucket, key)
	if err != nil {
		v.logger.Errorf("InitiateUpload - CreateMultipartUpload error: %v", err)
		return nil, fmt.Errorf("failed to initiate upload: %v", err)
	}
	return &models.MultipartUpload{Key: key, UploadID: uploadID}, nil
}

func (v *videoUC) GetPartUploadURLs(ctx context.Context, key, uploadID string, parts int) ([]models.PartUploadURL, error) {
	if key == "" || uploadID == "" {
		return nil, fmt.Errorf("invalid input: key and upload id are required")
	}
	if parts < 1 || parts > v.cfg.Upload.MaxParts {
		return nil, fmt.Errorf("invalid part count %d: must be between 1 and %d", parts, v.cfg.Upload.MaxParts)
	}
	urls, err := v.blobRepo.GetPartUploadURLs(ctx, v.cfg.S3.RawBucket, key, uploadID, parts)
	if err != nil {
		v.logger.Errorf("GetPartUploadURLs error: %v", err)
		return nil, fmt.Errorf("failed to presign part urls: %v", err)
	}
	return urls, nil
}

func (v *videoUC) CompleteUpload(ctx context.Context, key, uploadID string, parts []models.CompletedPart) (*models.TranscodeJob, error) {
	if key == "" || uploadID == "" || len(parts) == 0 {
		return nil, fmt.Errorf("invalid input: key, upload id and parts are required")
	}
	if _, err := models.ParseJobKey(key); err != nil {
		return nil, fmt.Errorf("invalid upload key: %v", err)
	}

	sort.Slice(parts, func(i, j int) bool {
		return parts[i].PartNumber < parts[j].PartNumber
	})
	if err := v.blobRepo.CompleteMultipartUpload(ctx, v.cfg.S3.RawBucket, key, uploadID, parts); err != nil {
		v.logger.Errorf("CompleteUpload - CompleteMultipartUpload error: %v", err)
		return nil, fmt.Errorf("failed to complete upload: %v", err)
	}

	job := &models.TranscodeJob{Key: key}
	if err := v.enqueuer.Enqueue(ctx, job); err != nil {
		v.logger.Errorf("CompleteUpload - Enqueue error: %v", err)
		return nil, fmt.Errorf("failed to queue the job: %v", err)
	}
	return job, nil
}

func (v *videoUC) AbortUpload(ctx context.Context, key, uploadID string) error {
	if key == "" || uploadID == "" {
		return fmt.Errorf("invalid input: key and upload id are required")
	}
	if err := v.blobRepo.AbortMultipartUpload(ctx, v.cfg.S3.RawBucket, key, uploadID); err != nil {
		v.logger.Errorf("AbortUpload error: %v", err)
		return fmt.Errorf("failed to abort upload: %v", err)
	}
	return nil
}

func (v *videoUC) ListVideos(ctx context.Context, pagination *utils.Pagination) (*models.VideoList, error) {
	if pagination == nil {
		pagination = &utils.Pagination{Page: 1, Size: 10}
	}
	if pagination.Page < 1 {
		pagination.Page = 1
	}
	if pagination.Size < 1 || pagination.Size > 100 {
		pagination.Size = 10
	}
	list, err := v.videoRepo.FindVideoRecords(ctx, pagination)
	if err != nil {
		v.logger.Errorf("ListVideos - FindVideoRecords error: %v", err)
		return nil, fmt.Errorf("failed to fetch videos: %v", err)
	}
	return list, nil
}
