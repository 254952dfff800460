package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/streamforge/vodengine/internal/config"
	"github.com/streamforge/vodengine/internal/pipeline"
	"github.com/streamforge/vodengine/internal/progress"
	"github.com/streamforge/vodengine/internal/queue"
	videoRepository "github.com/streamforge/vodengine/internal/videos/repository"
	"github.com/streamforge/vodengine/pkg/db/aws"
	"github.com/streamforge/vodengine/pkg/db/postgres"
	"github.com/streamforge/vodengine/pkg/db/redis"
	"github.com/streamforge/vodengine/pkg/logger"
)

// Standalone transcode worker. It drains the same Redis job queue as the
// server but has no websocket subscribers, so progress events are dropped.
func main() {
	log.Println("Starting worker")
	configFile := "config.yml"
	cfgFile, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("loadConfig: %v", err)
	}
	cfg, err := config.ParseConfig(cfgFile)
	if err != nil {
		log.Fatalf("parseConfig: %v", err)
	}
	appLogger := logger.NewApiLogger(cfg)
	appLogger.InitLogger()
	appLogger.Infof("AppVersion: %s, LogLevel: %s, Mode: %s", cfg.Server.AppVersion, cfg.Logger.Level, cfg.Server.Mode)

	psqlDB, err := postgres.NewPsqlDB(cfg)
	if err != nil {
		appLogger.Fatalf("could not connect to db: %s", err)
	}
	defer psqlDB.Close()

	redisClient, err := redis.NewRedisClient(cfg)
	if err != nil {
		appLogger.Fatalf("could not connect to redis: %s", err)
	}
	defer redisClient.Close()

	s3Client, presignClient, err := aws.NewAWSClient(cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.AccessKey, cfg.S3.SecretKey)
	if err != nil {
		appLogger.Fatalf("could not connect to s3: %s", err)
	}

	videoRepo := videoRepository.NewVideoRepo(psqlDB)
	blobRepo := videoRepository.NewBlobRepository(s3Client, presignClient, time.Duration(cfg.Upload.PartURLExpireMin)*time.Minute)
	queueRepo := videoRepository.NewQueueRedisRepo(redisClient)

	progressCh := progress.NewChannel(appLogger)
	transcoder := pipeline.NewFFmpegTranscoder(cfg)
	pipe := pipeline.NewPipeline(cfg, appLogger, blobRepo, videoRepo, transcoder, progressCh)

	q := queue.NewTranscodeQueue(cfg, appLogger, queueRepo, pipe.Run)

	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)
	appLogger.Infof("worker started, maxWorkers: %d", cfg.Worker.MaxWorkers)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	sig := <-quit
	appLogger.Infof("received signal %s, shutting down", sig)

	cancel()
	q.Wait()
	progressCh.Shutdown()
	appLogger.Info("worker exited")
}
