package repository

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/streamforge/vodengine/internal/models"
	"github.com/streamforge/vodengine/internal/videos"
)

type queueRedisRepo struct {
	redisClient *redis.Client
}

func NewQueueRedisRepo(redisClient *redis.Client) videos.QueueRepository {
	return &queueRedisRepo{
		redisClient: redisClient,
	}
}

func (q *queueRedisRepo) PushJob(ctx context.Context, queueKey string, job *models.TranscodeJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return errors.Wrap(err, "failed to marshal job")
	}
	if err := q.redisClient.RPush(ctx, queueKey, data).Err(); err != nil {
		return errors.Wrap(err, "failed to push job")
	}
	return nil
}

func (q *queueRedisRepo) PopJob(ctx context.Context, queueKey string) (*models.TranscodeJob, error) {
	res, err := q.redisClient.LPop(ctx, queueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to pop job")
	}
	job := &models.TranscodeJob{}
	if err := json.Unmarshal([]byte(res), job); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal job")
	}
	return job, nil
}

func (q *queueRedisRepo) QueueLen(ctx context.Context, queueKey string) (int64, error) {
	length, err := q.redisClient.LLen(ctx, queueKey).Result()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get queue length")
	}
	return length, nil
}
