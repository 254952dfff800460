package upload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/streamforge/vodengine/internal/config"
	"github.com/streamforge/vodengine/internal/models"
	"github.com/streamforge/vodengine/pkg/logger"
	"github.com/stretchr/testify/require"
)

// partServer accepts presigned-style part PUTs at /part/<n> and keeps the
// bodies so a test can reassemble the object.
type partServer struct {
	mu       sync.Mutex
	parts    map[int][]byte
	failPart int
	server   *httptest.Server
}

func newPartServer(failPart int) *partServer {
	ps := &partServer{
		parts:    make(map[int][]byte),
		failPart: failPart,
	}
	ps.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var n int
		if _, err := fmt.Sscanf(r.URL.Path, "/part/%d", &n); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if n == ps.failPart {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		ps.mu.Lock()
		ps.parts[n] = body
		ps.mu.Unlock()
		w.Header().Set("ETag", `"etag-`+strconv.Itoa(n)+`"`)
		w.WriteHeader(http.StatusOK)
	}))
	return ps
}

func (ps *partServer) reassemble(count int) []byte {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	var out []byte
	for i := 1; i <= count; i++ {
		out = append(out, ps.parts[i]...)
	}
	return out
}

type fakeUploadRepo struct {
	mu        sync.Mutex
	baseURL   string
	created   int
	completed []models.CompletedPart
	aborted   int
}

func (f *fakeUploadRepo) CreateMultipartUpload(ctx context.Context, bucket, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	return "upload-1", nil
}

func (f *fakeUploadRepo) GetPartUploadURLs(ctx context.Context, bucket, key, uploadID string, parts int) ([]models.PartUploadURL, error) {
	urls := make([]models.PartUploadURL, parts)
	for i := 0; i < parts; i++ {
		urls[i] = models.PartUploadURL{
			SignedURL:  fmt.Sprintf("%s/part/%d", f.baseURL, i+1),
			PartNumber: int32(i + 1),
		}
	}
	return urls, nil
}

func (f *fakeUploadRepo) CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts []models.CompletedPart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append([]models.CompletedPart(nil), parts...)
	return nil
}

func (f *fakeUploadRepo) AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aborted++
	return nil
}

func (f *fakeUploadRepo) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, int64, error) {
	return nil, 0, errors.New("not implemented")
}

func (f *fakeUploadRepo) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	return errors.New("not implemented")
}

func (f *fakeUploadRepo) DeleteObject(ctx context.Context, bucket, key string) error {
	return errors.New("not implemented")
}

func (f *fakeUploadRepo) GetSignedReadURL(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	return "", errors.New("not implemented")
}

type fakeEnqueuer struct {
	mu   sync.Mutex
	jobs []*models.TranscodeJob
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, job *models.TranscodeJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return nil
}

func uploadConfig(chunkSize int64, maxParts int) *config.Config {
	return &config.Config{
		S3: config.S3Config{RawBucket: "vod-raw"},
		Upload: config.UploadConfig{
			ChunkSize: chunkSize,
			MaxParts:  maxParts,
		},
	}
}

func payload(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func TestUploadRoundTrip(t *testing.T) {
	ps := newPartServer(0)
	defer ps.server.Close()
	repo := &fakeUploadRepo{baseURL: ps.server.URL}
	enq := &fakeEnqueuer{}
	c := NewCoordinator(uploadConfig(10, 100), logger.NewNopLogger(), repo, enq, ps.server.Client())

	// 25 bytes at chunk size 10: two full parts plus a 5-byte remainder.
	data := payload(25)
	var mu sync.Mutex
	var lastPct float64
	key, err := c.Upload(context.Background(), data, "myvideo.mp4", func(pct float64) {
		mu.Lock()
		if pct > lastPct {
			lastPct = pct
		}
		mu.Unlock()
	})
	require.NoError(t, err)

	parsed, err := models.ParseJobKey(key)
	require.NoError(t, err)
	require.Equal(t, "myvideo", parsed.DisplayName)

	require.Equal(t, data, ps.reassemble(3))
	require.Equal(t, 100.0, lastPct)

	require.Len(t, repo.completed, 3)
	require.Zero(t, repo.aborted)
	require.Len(t, enq.jobs, 1)
	require.Equal(t, key, enq.jobs[0].Key)
}

func TestUploadCompletesPartsInOrder(t *testing.T) {
	ps := newPartServer(0)
	defer ps.server.Close()
	repo := &fakeUploadRepo{baseURL: ps.server.URL}
	c := NewCoordinator(uploadConfig(10, 100), logger.NewNopLogger(), repo, &fakeEnqueuer{}, ps.server.Client())

	_, err := c.Upload(context.Background(), payload(95), "myvideo.mp4", nil)
	require.NoError(t, err)

	require.Len(t, repo.completed, 10)
	for i, part := range repo.completed {
		require.Equal(t, int32(i+1), part.PartNumber)
		require.Equal(t, fmt.Sprintf("etag-%d", i+1), part.ETag)
	}
}

func TestUploadPartFailureAborts(t *testing.T) {
	ps := newPartServer(3)
	defer ps.server.Close()
	repo := &fakeUploadRepo{baseURL: ps.server.URL}
	enq := &fakeEnqueuer{}
	c := NewCoordinator(uploadConfig(10, 100), logger.NewNopLogger(), repo, enq, ps.server.Client())

	_, err := c.Upload(context.Background(), payload(95), "myvideo.mp4", nil)
	require.Error(t, err)

	require.Empty(t, repo.completed)
	require.Equal(t, 1, repo.aborted)
	require.Empty(t, enq.jobs)
}

func TestUploadTooManyParts(t *testing.T) {
	repo := &fakeUploadRepo{}
	c := NewCoordinator(uploadConfig(10, 2), logger.NewNopLogger(), repo, &fakeEnqueuer{}, nil)

	_, err := c.Upload(context.Background(), payload(25), "myvideo.mp4", nil)
	require.ErrorIs(t, err, ErrUnsupportedFileFormat)

	// Rejected before any provider call.
	require.Zero(t, repo.created)
	require.Zero(t, repo.aborted)
}

func TestUploadEmptyFile(t *testing.T) {
	repo := &fakeUploadRepo{}
	c := NewCoordinator(uploadConfig(10, 2), logger.NewNopLogger(), repo, &fakeEnqueuer{}, nil)

	_, err := c.Upload(context.Background(), nil, "myvideo.mp4", nil)
	require.Error(t, err)
	require.Zero(t, repo.created)
}

func TestSplitChunks(t *testing.T) {
	data := payload(25)

	chunks := splitChunks(data, 10)
	require.Len(t, chunks, 3)
	require.Len(t, chunks[0], 10)
	require.Len(t, chunks[1], 10)
	require.Len(t, chunks[2], 5)

	var joined []byte
	for _, c := range chunks {
		joined = append(joined, c...)
	}
	require.Equal(t, data, joined)

	require.Len(t, splitChunks(payload(10), 10), 1)
	require.Len(t, splitChunks(payload(11), 10), 2)
}
