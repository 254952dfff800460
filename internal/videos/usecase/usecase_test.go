package usecase

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/streamforge/vodengine/internal/config"
	"github.com/streamforge/vodengine/internal/models"
	"github.com/streamforge/vodengine/pkg/logger"
	"github.com/streamforge/vodengine/pkg/utils"
	"github.com/stretchr/testify/require"
)

type fakeBlobRepo struct {
	createdKeys []string
	completed   []models.CompletedPart
	aborted     []string
	urlCount    int
}

func (f *fakeBlobRepo) CreateMultipartUpload(ctx context.Context, bucket, key string) (string, error) {
	f.createdKeys = append(f.createdKeys, key)
	return "upload-1", nil
}

func (f *fakeBlobRepo) GetPartUploadURLs(ctx context.Context, bucket, key, uploadID string, parts int) ([]models.PartUploadURL, error) {
	f.urlCount = parts
	urls := make([]models.PartUploadURL, parts)
	for i := range urls {
		urls[i] = models.PartUploadURL{SignedURL: "https://example/part", PartNumber: int32(i + 1)}
	}
	return urls, nil
}

func (f *fakeBlobRepo) CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts []models.CompletedPart) error {
	f.completed = append([]models.CompletedPart(nil), parts...)
	return nil
}

func (f *fakeBlobRepo) AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error {
	f.aborted = append(f.aborted, key)
	return nil
}

func (f *fakeBlobRepo) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, int64, error) {
	return nil, 0, errors.New("not implemented")
}

func (f *fakeBlobRepo) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	return errors.New("not implemented")
}

func (f *fakeBlobRepo) DeleteObject(ctx context.Context, bucket, key string) error {
	return errors.New("not implemented")
}

func (f *fakeBlobRepo) GetSignedReadURL(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	return "", errors.New("not implemented")
}

type fakeVideoRepo struct {
	list *models.VideoList
}

func (f *fakeVideoRepo) CreateVideoRecord(ctx context.Context, record *models.VideoRecord) (*models.VideoRecord, error) {
	return record, nil
}

func (f *fakeVideoRepo) FindVideoRecords(ctx context.Context, pq *utils.Pagination) (*models.VideoList, error) {
	return f.list, nil
}

type fakeEnqueuer struct {
	jobs []*models.TranscodeJob
	err  error
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, job *models.TranscodeJob) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func newUC(blobRepo *fakeBlobRepo, videoRepo *fakeVideoRepo, enq *fakeEnqueuer) *videoUC {
	cfg := &config.Config{
		S3:     config.S3Config{RawBucket: "vod-raw"},
		Upload: config.UploadConfig{MaxParts: 10_000},
	}
	return NewVideoUseCase(cfg, videoRepo, blobRepo, enq, logger.NewNopLogger()).(*videoUC)
}

func TestInitiateUpload(t *testing.T) {
	blobRepo := &fakeBlobRepo{}
	uc := newUC(blobRepo, &fakeVideoRepo{}, &fakeEnqueuer{})

	out, err := uc.InitiateUpload(context.Background(), &models.InitiateUploadInput{
		FileName: "My Holiday.mp4",
		FileSize: 1024,
	})
	require.NoError(t, err)
	require.Equal(t, "upload-1", out.UploadID)

	parsed, err := models.ParseJobKey(out.Key)
	require.NoError(t, err)
	require.Equal(t, "My Holiday", parsed.DisplayName)
	require.Equal(t, []string{out.Key}, blobRepo.createdKeys)
}

func TestInitiateUploadRejectsNonVideo(t *testing.T) {
	uc := newUC(&fakeBlobRepo{}, &fakeVideoRepo{}, &fakeEnqueuer{})

	_, err := uc.InitiateUpload(context.Background(), &models.InitiateUploadInput{
		FileName: "notes.txt",
		FileSize: 1024,
	})
	require.Error(t, err)

	_, err = uc.InitiateUpload(context.Background(), nil)
	require.Error(t, err)
}

func TestGetPartUploadURLsBounds(t *testing.T) {
	blobRepo := &fakeBlobRepo{}
	uc := newUC(blobRepo, &fakeVideoRepo{}, &fakeEnqueuer{})

	urls, err := uc.GetPartUploadURLs(context.Background(), "myvideo@@@ab12cd34ef.mp4", "upload-1", 3)
	require.NoError(t, err)
	require.Len(t, urls, 3)

	_, err = uc.GetPartUploadURLs(context.Background(), "myvideo@@@ab12cd34ef.mp4", "upload-1", 0)
	require.Error(t, err)

	_, err = uc.GetPartUploadURLs(context.Background(), "myvideo@@@ab12cd34ef.mp4", "upload-1", 10_001)
	require.Error(t, err)

	_, err = uc.GetPartUploadURLs(context.Background(), "", "upload-1", 3)
	require.Error(t, err)
}

func TestCompleteUploadSortsAndEnqueues(t *testing.T) {
	blobRepo := &fakeBlobRepo{}
	enq := &fakeEnqueuer{}
	uc := newUC(blobRepo, &fakeVideoRepo{}, enq)

	key := "myvideo@@@ab12cd34ef.mp4"
	job, err := uc.CompleteUpload(context.Background(), key, "upload-1", []models.CompletedPart{
		{ETag: "e3", PartNumber: 3},
		{ETag: "e1", PartNumber: 1},
		{ETag: "e2", PartNumber: 2},
	})
	require.NoError(t, err)
	require.Equal(t, key, job.Key)

	require.Len(t, blobRepo.completed, 3)
	for i, part := range blobRepo.completed {
		require.Equal(t, int32(i+1), part.PartNumber)
	}
	require.Len(t, enq.jobs, 1)
	require.Equal(t, key, enq.jobs[0].Key)
}

func TestCompleteUploadRejectsMalformedKey(t *testing.T) {
	blobRepo := &fakeBlobRepo{}
	uc := newUC(blobRepo, &fakeVideoRepo{}, &fakeEnqueuer{})

	_, err := uc.CompleteUpload(context.Background(), "no-separator.mp4", "upload-1", []models.CompletedPart{
		{ETag: "e1", PartNumber: 1},
	})
	require.Error(t, err)
	require.Empty(t, blobRepo.completed)
}

func TestCompleteUploadEnqueueFailure(t *testing.T) {
	enq := &fakeEnqueuer{err: errors.New("queue down")}
	uc := newUC(&fakeBlobRepo{}, &fakeVideoRepo{}, enq)

	_, err := uc.CompleteUpload(context.Background(), "myvideo@@@ab12cd34ef.mp4", "upload-1", []models.CompletedPart{
		{ETag: "e1", PartNumber: 1},
	})
	require.Error(t, err)
}

func TestAbortUpload(t *testing.T) {
	blobRepo := &fakeBlobRepo{}
	uc := newUC(blobRepo, &fakeVideoRepo{}, &fakeEnqueuer{})

	require.NoError(t, uc.AbortUpload(context.Background(), "myvideo@@@ab12cd34ef.mp4", "upload-1"))
	require.Equal(t, []string{"myvideo@@@ab12cd34ef.mp4"}, blobRepo.aborted)

	require.Error(t, uc.AbortUpload(context.Background(), "", "upload-1"))
}

func TestListVideosClampsPagination(t *testing.T) {
	videoRepo := &fakeVideoRepo{list: &models.VideoList{TotalCount: 1}}
	uc := newUC(&fakeBlobRepo{}, videoRepo, &fakeEnqueuer{})

	list, err := uc.ListVideos(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, list.TotalCount)

	pq := &utils.Pagination{Page: -2, Size: 5000}
	_, err = uc.ListVideos(context.Background(), pq)
	require.NoError(t, err)
	require.Equal(t, 1, pq.Page)
	require.Equal(t, 10, pq.Size)
}
