package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/streamforge/vodengine/internal/pipeline"
	"github.com/streamforge/vodengine/internal/progress"
	"github.com/streamforge/vodengine/internal/queue"
	videoHttp "github.com/streamforge/vodengine/internal/videos/delivery/http"
	videoRepository "github.com/streamforge/vodengine/internal/videos/repository"
	videoUsecase "github.com/streamforge/vodengine/internal/videos/usecase"
	"github.com/streamforge/vodengine/pkg/utils"
)

// MapHandlers wires repositories, the transcode queue, the pipeline and the
// progress channel, then mounts the HTTP routes. The queue workers run in
// this process so pipeline progress reaches websocket subscribers directly.
func (s *Server) MapHandlers(ctx context.Context, e *echo.Echo) error {
	videoRepo := videoRepository.NewVideoRepo(s.db)
	blobRepo := videoRepository.NewBlobRepository(
		s.s3Client,
		s.preSignClient,
		time.Duration(s.cfg.Upload.PartURLExpireMin)*time.Minute,
	)
	queueRepo := videoRepository.NewQueueRedisRepo(s.redisClient)

	s.progressCh = progress.NewChannel(s.logger)
	transcoder := pipeline.NewFFmpegTranscoder(s.cfg)
	pipe := pipeline.NewPipeline(s.cfg, s.logger, blobRepo, videoRepo, transcoder, s.progressCh)
	s.queue = queue.NewTranscodeQueue(s.cfg, s.logger, queueRepo, pipe.Run)
	s.queue.Start(ctx)

	videoUC := videoUsecase.NewVideoUseCase(s.cfg, videoRepo, blobRepo, s.queue, s.logger)
	videoHandlers := videoHttp.NewVideoHandler(videoUC)

	v1 := e.Group("/api/v1")
	health := v1.Group("/health")
	videoGroup := v1.Group("/video")

	videoHttp.MapVideoRoutes(videoGroup, videoHandlers)
	videoGroup.GET("/progress", progress.ServeWS(s.progressCh, s.logger))

	health.GET("", func(c echo.Context) error {
		s.logger.Infof("Health check RequestID: %s", utils.GetRequestID(c))
		return c.JSON(http.StatusOK, map[string]string{"status": "OK"})
	})
	return nil
}
