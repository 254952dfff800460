package queue

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/streamforge/vodengine/internal/config"
	"github.com/streamforge/vodengine/internal/models"
	"github.com/streamforge/vodengine/internal/videos"
	"github.com/streamforge/vodengine/pkg/logger"
	"github.com/streamforge/vodengine/pkg/utils"
)

// ProcessFunc runs a single job attempt. A nil return is terminal success;
// an error wrapped with NonRetryable is terminal failure; anything else is
// retried in the same worker slot up to the configured retry limit.
type ProcessFunc func(ctx context.Context, job *models.TranscodeJob) error

// TranscodeQueue couples a durable FIFO with a fixed pool of worker
// goroutines. Each worker drains the queue to empty whenever it wakes, so
// jobs enqueued while a slot is free start immediately and FIFO admission
// order is preserved across jobs. Retries of a failed job happen inside the
// worker slot that popped it; the job is never requeued to the tail.
type TranscodeQueue struct {
	cfg     *config.Config
	logger  logger.Logger
	repo    videos.QueueRepository
	process ProcessFunc
	wake    chan struct{}
	wg      sync.WaitGroup
}

func NewTranscodeQueue(cfg *config.Config, log logger.Logger, repo videos.QueueRepository, process ProcessFunc) *TranscodeQueue {
	return &TranscodeQueue{
		cfg:     cfg,
		logger:  log,
		repo:    repo,
		process: process,
		wake:    make(chan struct{}, 1),
	}
}

// Enqueue appends job to the durable FIFO and nudges an idle worker. It only
// fails when the durable append itself fails.
func (q *TranscodeQueue) Enqueue(ctx context.Context, job *models.TranscodeJob) error {
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}
	if err := q.repo.PushJob(ctx, q.cfg.Redis.JobQueueKey, job); err != nil {
		q.logger.Errorf("failed to enqueue job %s: %v", job.Key, err)
		return errors.Wrap(ErrQueueUnavailable, err.Error())
	}
	q.logger.Infof("enqueued job %s", job.Key)
	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// Start spawns the worker pool. Workers run until ctx is cancelled; Wait
// blocks until they have all drained their current job.
func (q *TranscodeQueue) Start(ctx context.Context) {
	q.logger.Infof("starting transcode queue with %d workers", q.cfg.Worker.MaxWorkers)
	for i := 0; i < q.cfg.Worker.MaxWorkers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}
}

func (q *TranscodeQueue) Wait() {
	q.wg.Wait()
}

func (q *TranscodeQueue) worker(ctx context.Context, id int) {
	defer q.wg.Done()

	// Poll ticker covers jobs enqueued by other processes, which cannot
	// signal the in-process wake channel.
	ticker := time.NewTicker(time.Duration(q.cfg.Worker.PollIntervalSec) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.wake:
		case <-ticker.C:
		}
		q.drain(ctx, id)
	}
}

func (q *TranscodeQueue) drain(ctx context.Context, id int) {
	for {
		if ctx.Err() != nil {
			return
		}
		if q.cfg.Worker.MaxCPUUsage > 0 {
			if ok, usage := utils.CheckCPUUsage(q.cfg.Worker.MaxCPUUsage); !ok {
				q.logger.Infof("worker %d deferring, CPU usage %.2f%% too high", id, usage)
				return
			}
		}
		job, err := q.repo.PopJob(ctx, q.cfg.Redis.JobQueueKey)
		if err != nil {
			q.logger.Errorf("worker %d failed to pop job: %v", id, err)
			return
		}
		if job == nil {
			return
		}
		q.runJob(ctx, id, job)
	}
}

// runJob retries the same popped job sequentially inside this worker slot.
// Exhausted retries drop the job with an error log; there is no dead-letter
// store, the pipeline has already surfaced terminal errors to the uploader.
func (q *TranscodeQueue) runJob(ctx context.Context, id int, job *models.TranscodeJob) {
	for attempt := 1; ; attempt++ {
		job.Attempt = attempt
		q.logger.Infof("worker %d dispatching job %s (attempt %d)", id, job.Key, attempt)

		err := q.process(ctx, job)
		if err == nil {
			q.logger.Infof("worker %d completed job %s", id, job.Key)
			return
		}
		if IsNonRetryable(err) {
			q.logger.Errorf("worker %d dropping job %s: %v", id, job.Key, err)
			return
		}
		if attempt >= q.cfg.Worker.MaxRetries {
			q.logger.Errorf("worker %d dropping job %s after %d attempts: %v", id, job.Key, attempt, err)
			return
		}

		q.logger.Warnf("worker %d retrying job %s in %ds: %v", id, job.Key, q.cfg.Worker.RetryDelaySec, err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(q.cfg.Worker.RetryDelaySec) * time.Second):
		}
	}
}
