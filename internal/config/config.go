package config

import (
	"errors"
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Postgres  DBConfig
	Redis     RedisConfig
	S3        S3Config
	Logger    Logger
	Worker    WorkerConfig
	Transcode TranscodeConfig
	Upload    UploadConfig
}

type ServerConfig struct {
	AppVersion string
	Port       string
	Mode       string
}

type WorkerConfig struct {
	MaxWorkers      int
	MaxRetries      int
	RetryDelaySec   int
	PollIntervalSec int
	MaxCPUUsage     float64
}

type TranscodeConfig struct {
	FFmpegPath     string
	FFprobePath    string
	TargetFps      float64
	MaxSourceBytes int64
	TempDir        string
}

type UploadConfig struct {
	ChunkSize        int64
	MaxParts         int
	PartURLExpireMin int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	PgDriver string
}

type RedisConfig struct {
	RedisAddr     string
	RedisPassword string
	DB            int
	MinIdleConns  int
	PoolSize      int
	PoolTimeout   int
	JobQueueKey   string
}

type S3Config struct {
	Endpoint        string
	Region          string
	AccessKey       string
	SecretKey       string
	RawBucket       string
	MediaBucket     string
	PlaybackBaseURL string
}

type Logger struct {
	Development       bool
	DisableCaller     bool
	DisableStacktrace bool
	Encoding          string
	Level             string
}

func LoadConfig(filename string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(filename)
	v.AddConfigPath(".")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFound) {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	applyDefaults(&c)
	return &c, nil
}

func applyDefaults(c *Config) {
	if c.Worker.MaxWorkers <= 0 {
		c.Worker.MaxWorkers = 1
	}
	if c.Worker.MaxRetries <= 0 {
		c.Worker.MaxRetries = 3
	}
	if c.Worker.RetryDelaySec <= 0 {
		c.Worker.RetryDelaySec = 30
	}
	if c.Worker.PollIntervalSec <= 0 {
		c.Worker.PollIntervalSec = 5
	}
	if c.Transcode.FFmpegPath == "" {
		c.Transcode.FFmpegPath = "ffmpeg"
	}
	if c.Transcode.FFprobePath == "" {
		c.Transcode.FFprobePath = "ffprobe"
	}
	if c.Transcode.TargetFps <= 0 {
		c.Transcode.TargetFps = 30
	}
	if c.Transcode.MaxSourceBytes <= 0 {
		c.Transcode.MaxSourceBytes = 2_000_000_000
	}
	if c.Transcode.TempDir == "" {
		c.Transcode.TempDir = "tmp_transcode"
	}
	if c.Upload.ChunkSize <= 0 {
		c.Upload.ChunkSize = 10_000_000
	}
	if c.Upload.MaxParts <= 0 {
		c.Upload.MaxParts = 10_000
	}
	if c.Upload.PartURLExpireMin <= 0 {
		c.Upload.PartURLExpireMin = 60
	}
	if c.Redis.JobQueueKey == "" {
		c.Redis.JobQueueKey = "transcode_jobs"
	}
	if c.Logger.Level == "" {
		log.Println("logger level not set, defaulting to info")
		c.Logger.Level = "info"
	}
}
