package upload

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/streamforge/vodengine/internal/config"
	"github.com/streamforge/vodengine/internal/models"
	"github.com/streamforge/vodengine/internal/videos"
	"github.com/streamforge/vodengine/pkg/logger"
)

// ErrUnsupportedFileFormat signals a file whose part count would exceed the
// storage provider's multipart limit. Raised before any network call.
var ErrUnsupportedFileFormat = errors.New("unsupported file format: part count exceeds multipart limit")

// Coordinator pushes one file into the raw bucket as a multipart upload:
// split into fixed-size parts, upload all parts concurrently against
// presigned URLs, finalize in part-number order, then hand the object off to
// the transcode queue. Progress is byte-accurate and unthrottled; there is a
// single consumer per upload.
type Coordinator struct {
	cfg      *config.Config
	logger   logger.Logger
	blobRepo videos.BlobRepository
	enqueuer videos.Enqueuer
	client   *http.Client
}

func NewCoordinator(cfg *config.Config, log logger.Logger, blobRepo videos.BlobRepository, enqueuer videos.Enqueuer, client *http.Client) *Coordinator {
	if client == nil {
		client = http.DefaultClient
	}
	return &Coordinator{
		cfg:      cfg,
		logger:   log,
		blobRepo: blobRepo,
		enqueuer: enqueuer,
		client:   client,
	}
}

// Upload ingests data under a fresh job key derived from fileName and
// returns that key. onProgress, when non-nil, receives the aggregate percent
// across all parts on every write tick of every part.
func (c *Coordinator) Upload(ctx context.Context, data []byte, fileName string, onProgress func(percent float64)) (string, error) {
	total := int64(len(data))
	if total == 0 {
		return "", errors.New("refusing to upload an empty file")
	}
	chunkSize := c.cfg.Upload.ChunkSize
	chunkCount := int((total + chunkSize - 1) / chunkSize)
	if chunkCount > c.cfg.Upload.MaxParts {
		return "", ErrUnsupportedFileFormat
	}

	ext := filepath.Ext(fileName)
	displayName := strings.TrimSuffix(filepath.Base(fileName), ext)
	jobKey := models.NewJobKey(displayName, ext)
	bucket := c.cfg.S3.RawBucket

	uploadID, err := c.blobRepo.CreateMultipartUpload(ctx, bucket, jobKey)
	if err != nil {
		return "", errors.Wrap(err, "failed to initiate multipart upload")
	}
	urls, err := c.blobRepo.GetPartUploadURLs(ctx, bucket, jobKey, uploadID, chunkCount)
	if err != nil {
		return "", errors.Wrap(err, "failed to get part upload urls")
	}
	if len(urls) != chunkCount {
		return "", errors.Errorf("expected %d part urls, got %d", chunkCount, len(urls))
	}

	chunks := splitChunks(data, chunkSize)
	loaded := make([]int64, len(chunks))
	report := func() {
		if onProgress == nil {
			return
		}
		var sum int64
		for i := range loaded {
			sum += atomic.LoadInt64(&loaded[i])
		}
		onProgress(float64(sum) / float64(total) * 100)
	}

	parts := make([]models.CompletedPart, len(chunks))
	var wg sync.WaitGroup
	errChan := make(chan error, 1)

	for i := range chunks {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			part, err := c.uploadPart(ctx, urls[idx], chunks[idx], &loaded[idx], report)
			if err != nil {
				select {
				case errChan <- err:
				default:
				}
				return
			}
			parts[idx] = part
		}(i)
	}
	wg.Wait()
	close(errChan)

	if err := <-errChan; err != nil {
		c.logger.Errorf("multipart upload of %s failed: %v", jobKey, err)
		if abortErr := c.blobRepo.AbortMultipartUpload(ctx, bucket, jobKey, uploadID); abortErr != nil {
			c.logger.Warnf("failed to abort multipart upload %s: %v", uploadID, abortErr)
		}
		return "", err
	}

	// Completion order of part uploads is arbitrary; the provider requires
	// the finalize list strictly ascending by part number.
	sort.Slice(parts, func(i, j int) bool {
		return parts[i].PartNumber < parts[j].PartNumber
	})
	if err := c.blobRepo.CompleteMultipartUpload(ctx, bucket, jobKey, uploadID, parts); err != nil {
		return "", errors.Wrap(err, "failed to finalize multipart upload")
	}

	if err := c.enqueuer.Enqueue(ctx, &models.TranscodeJob{Key: jobKey}); err != nil {
		return "", err
	}
	c.logger.Infof("uploaded %s in %d parts", jobKey, chunkCount)
	return jobKey, nil
}

func (c *Coordinator) uploadPart(ctx context.Context, url models.PartUploadURL, chunk []byte, loaded *int64, tick func()) (models.CompletedPart, error) {
	body := &progressReader{
		reader: bytes.NewReader(chunk),
		loaded: loaded,
		tick:   tick,
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url.SignedURL, body)
	if err != nil {
		return models.CompletedPart{}, errors.Wrapf(err, "part %d request", url.PartNumber)
	}
	req.ContentLength = int64(len(chunk))

	resp, err := c.client.Do(req)
	if err != nil {
		return models.CompletedPart{}, errors.Wrapf(err, "part %d upload", url.PartNumber)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return models.CompletedPart{}, errors.Errorf("part %d upload failed with status %d", url.PartNumber, resp.StatusCode)
	}
	return models.CompletedPart{
		ETag:       strings.Trim(resp.Header.Get("ETag"), `"`),
		PartNumber: url.PartNumber,
	}, nil
}

// splitChunks slices data into contiguous, non-overlapping chunks of
// chunkSize bytes; the last chunk may be shorter. The slices alias data.
func splitChunks(data []byte, chunkSize int64) [][]byte {
	var chunks [][]byte
	for off := int64(0); off < int64(len(data)); off += chunkSize {
		end := off + chunkSize
		if end > int64(len(data)) {
			end = int64(len(data))
		}
		chunks = append(chunks, data[off:end])
	}
	return chunks
}

type progressReader struct {
	reader *bytes.Reader
	loaded *int64
	tick   func()
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 {
		atomic.AddInt64(r.loaded, int64(n))
		r.tick()
	}
	return n, err
}
