package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/streamforge/vodengine/internal/config"
	"github.com/streamforge/vodengine/internal/models"
	"github.com/streamforge/vodengine/internal/progress"
	"github.com/streamforge/vodengine/internal/queue"
	"github.com/streamforge/vodengine/internal/videos"
	"github.com/streamforge/vodengine/pkg/logger"
)

const progressInterval = 3 * time.Second

// Pipeline runs one transcode job end to end: acquire the raw object, probe
// it, fan out the rendition ladder plus the thumbnail mosaic, persist the
// result and report every step through the progress channel.
type Pipeline struct {
	cfg        *config.Config
	logger     logger.Logger
	blobRepo   videos.BlobRepository
	videoRepo  videos.Repository
	transcoder Transcoder
	progress   *progress.Channel
}

func NewPipeline(
	cfg *config.Config,
	log logger.Logger,
	blobRepo videos.BlobRepository,
	videoRepo videos.Repository,
	transcoder Transcoder,
	progressCh *progress.Channel,
) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		logger:     log,
		blobRepo:   blobRepo,
		videoRepo:  videoRepo,
		transcoder: transcoder,
		progress:   progressCh,
	}
}

// Run processes a single job attempt. Validation failures (malformed key,
// oversized source, unreadable media) publish a terminal error to the
// uploader and come back wrapped as non-retryable; only acquire-phase blob
// errors are returned plain so the queue retries them.
func (p *Pipeline) Run(ctx context.Context, job *models.TranscodeJob) error {
	key, err := models.ParseJobKey(job.Key)
	if err != nil {
		p.logger.Errorf("job %s has malformed key: %v", job.Key, err)
		p.progress.Publish(job.Key, models.ErrorEvent("Invalid upload identifier"))
		return queue.NonRetryable(err)
	}

	workDir := filepath.Join(p.cfg.Transcode.TempDir, key.ShortID())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create work directory")
	}
	defer func() {
		p.logger.Debugf("cleaning work directory for %s", job.Key)
		os.RemoveAll(workDir)
	}()

	srcPath, err := p.acquire(ctx, job.Key, key, workDir)
	if err != nil {
		return err
	}

	duration, err := p.transcoder.Probe(ctx, srcPath)
	if err != nil {
		p.logger.Errorf("probe failed for %s: %v", job.Key, err)
		p.deleteRawObject(ctx, job.Key)
		p.progress.Publish(job.Key, models.ErrorEvent(probeMessage(err)))
		return queue.NonRetryable(err)
	}
	p.progress.Publish(job.Key, models.CheckedEvent(fmt.Sprintf("Video checked: duration %.0f seconds", duration)))

	if err := p.fanOut(ctx, job.Key, key, srcPath, workDir, duration); err != nil {
		p.progress.Publish(job.Key, models.ErrorEvent(err.Error()))
		p.deleteRawObject(ctx, job.Key)
		return queue.NonRetryable(err)
	}

	p.deleteRawObject(ctx, job.Key)

	if err := p.commit(ctx, job.Key, key); err != nil {
		p.progress.Publish(job.Key, models.ErrorEvent("Failed to save video metadata"))
		return queue.NonRetryable(err)
	}
	p.progress.Publish(job.Key, models.DoneEvent(key.DisplayName))
	return nil
}

// acquire downloads the raw object into the work directory, enforcing the
// hard source size ceiling before any bytes are read.
func (p *Pipeline) acquire(ctx context.Context, jobKey string, key models.JobKey, workDir string) (string, error) {
	body, size, err := p.blobRepo.GetObject(ctx, p.cfg.S3.RawBucket, jobKey)
	if err != nil {
		return "", errors.Wrap(err, "failed to acquire source object")
	}
	defer body.Close()

	if size > p.cfg.Transcode.MaxSourceBytes {
		p.logger.Warnf("rejecting %s: %d bytes exceeds ceiling", jobKey, size)
		p.deleteRawObject(ctx, jobKey)
		p.progress.Publish(jobKey, models.ErrorEvent("File is too big"))
		return "", queue.NonRetryable(errors.Errorf("source is %d bytes, ceiling is %d", size, p.cfg.Transcode.MaxSourceBytes))
	}

	srcPath := filepath.Join(workDir, key.ObjectName)
	out, err := os.Create(srcPath)
	if err != nil {
		return "", errors.Wrap(err, "failed to create local source file")
	}
	defer out.Close()
	if _, err := io.Copy(out, body); err != nil {
		return "", errors.Wrap(err, "failed to write local source file")
	}
	return srcPath, nil
}

// fanOut runs every rendition plus the mosaic concurrently against the same
// local source. The first failure wins; the rest run to completion before
// the error is reported, so no task writes to a torn-down work directory.
func (p *Pipeline) fanOut(ctx context.Context, jobKey string, key models.JobKey, srcPath, workDir string, duration float64) error {
	var wg sync.WaitGroup
	errChan := make(chan error, 1)

	fail := func(err error) {
		select {
		case errChan <- err:
		default:
		}
	}

	for _, rendition := range models.DefaultLadder() {
		wg.Add(1)
		go func(r models.Rendition) {
			defer wg.Done()
			if err := p.renderRendition(ctx, jobKey, key, srcPath, workDir, r, duration); err != nil {
				fail(err)
			}
		}(rendition)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := p.renderMosaic(ctx, jobKey, key, srcPath, workDir, duration); err != nil {
			fail(err)
		}
	}()

	wg.Wait()
	close(errChan)
	if err := <-errChan; err != nil {
		return err
	}
	return nil
}

func (p *Pipeline) renderRendition(ctx context.Context, jobKey string, key models.JobKey, srcPath, workDir string, rendition models.Rendition, duration float64) error {
	outputName := rendition.OutputName(key.ShortID())
	outputPath := filepath.Join(workDir, outputName)

	gate := newProgressGate(progressInterval)
	onProgress := func(percent float64) {
		if pct, ok := gate.Offer(percent); ok {
			p.progress.Publish(jobKey, models.RenditionProgressEvent(rendition.Height, pct))
		}
	}

	if err := p.transcoder.RenderRendition(ctx, srcPath, outputPath, rendition, duration, onProgress); err != nil {
		return errors.Wrapf(err, "rendition %s failed", rendition.Label())
	}
	if err := p.storeOutput(ctx, outputPath, outputName, "video/mp4"); err != nil {
		return errors.Wrapf(err, "failed to store rendition %s", rendition.Label())
	}
	p.progress.Publish(jobKey, models.ProcessedEvent(rendition.Label()))
	return nil
}

func (p *Pipeline) renderMosaic(ctx context.Context, jobKey string, key models.JobKey, srcPath, workDir string, duration float64) error {
	outputName := models.MosaicName(key.ShortID())
	outputPath := filepath.Join(workDir, outputName)

	if err := p.transcoder.RenderMosaic(ctx, srcPath, outputPath, duration); err != nil {
		return errors.Wrap(err, "thumbnail mosaic failed")
	}
	if err := p.storeOutput(ctx, outputPath, outputName, "image/webp"); err != nil {
		return errors.Wrap(err, "failed to store thumbnail mosaic")
	}
	p.progress.Publish(jobKey, models.CheckedEvent("Thumbnail mosaic ready"))
	return nil
}

// storeOutput uploads a finished local artifact to the media bucket and
// deletes the local copy once it is durably written.
func (p *Pipeline) storeOutput(ctx context.Context, localPath, objectName, contentType string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return errors.Wrap(err, "failed to open output")
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return errors.Wrap(err, "failed to stat output")
	}
	if err := p.blobRepo.PutObject(ctx, p.cfg.S3.MediaBucket, objectName, file, stat.Size(), contentType); err != nil {
		file.Close()
		return err
	}
	file.Close()
	if err := os.Remove(localPath); err != nil {
		p.logger.Warnf("failed to remove local output %s: %v", localPath, err)
	}
	return nil
}

func (p *Pipeline) commit(ctx context.Context, jobKey string, key models.JobKey) error {
	canonicalURL := p.cfg.S3.PlaybackBaseURL
	if canonicalURL != "" && canonicalURL[len(canonicalURL)-1] != '/' {
		canonicalURL += "/"
	}
	canonicalURL += key.ShortID()

	record := &models.VideoRecord{
		Name: key.DisplayName,
		URL:  canonicalURL,
	}
	if _, err := p.videoRepo.CreateVideoRecord(ctx, record); err != nil {
		p.logger.Errorf("failed to persist video record for %s: %v", jobKey, err)
		return err
	}
	p.logger.Infof("committed video record %q -> %s", key.DisplayName, canonicalURL)
	return nil
}

func (p *Pipeline) deleteRawObject(ctx context.Context, jobKey string) {
	if err := p.blobRepo.DeleteObject(ctx, p.cfg.S3.RawBucket, jobKey); err != nil {
		p.logger.Warnf("failed to delete raw object %s: %v", jobKey, err)
	}
}

func probeMessage(err error) string {
	if err == nil || err.Error() == "" {
		return "Probe Error"
	}
	return err.Error()
}
