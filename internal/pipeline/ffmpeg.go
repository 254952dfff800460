package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/streamforge/vodengine/internal/config"
	"github.com/streamforge/vodengine/internal/models"
)

const (
	mosaicFrames  = 100
	mosaicColumns = 10
	mosaicRows    = 10
	mosaicCellW   = 128
	mosaicCellH   = 72
)

// ffmpegTranscoder shells out to ffmpeg/ffprobe.
type ffmpegTranscoder struct {
	cfg *config.Config
}

func NewFFmpegTranscoder(cfg *config.Config) Transcoder {
	return &ffmpegTranscoder{cfg: cfg}
}

func (f *ffmpegTranscoder) Probe(ctx context.Context, inputPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, f.cfg.Transcode.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		inputPath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return 0, errors.Errorf("ffprobe error: %v output: %s", err, string(output))
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, errors.Errorf("invalid duration: %v", err)
	}
	if duration <= 0 {
		return 0, errors.New("invalid duration: not positive")
	}
	return duration, nil
}

func (f *ffmpegTranscoder) RenderRendition(ctx context.Context, inputPath, outputPath string, rendition models.Rendition, duration float64, onProgress func(percent float64)) error {
	cmd := exec.CommandContext(ctx, f.cfg.Transcode.FFmpegPath,
		"-i", inputPath,
		"-vf", fmt.Sprintf("scale=%d:%d", rendition.Width(), rendition.Height),
		"-c:v", "libx264",
		"-profile:v", rendition.Profile,
		"-r", fmt.Sprintf("%.0f", f.cfg.Transcode.TargetFps),
		"-movflags", "+faststart",
		"-c:a", "aac",
		"-b:a", "128k",
		"-progress", "pipe:1",
		"-nostats",
		"-y", outputPath,
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "stdout pipe")
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "ffmpeg start")
	}

	totalFrames := f.cfg.Transcode.TargetFps * duration
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		switch parts[0] {
		case "frame":
			if totalFrames <= 0 || onProgress == nil {
				continue
			}
			frames, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
			if err != nil {
				continue
			}
			onProgress(frames / totalFrames * 100)
		case "progress":
			if parts[1] == "end" && onProgress != nil {
				onProgress(100)
			}
		}
	}

	if err := cmd.Wait(); err != nil {
		return errors.Errorf("ffmpeg %s failed: %v, stderr: %s", rendition.Label(), err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (f *ffmpegTranscoder) RenderMosaic(ctx context.Context, inputPath, outputPath string, duration float64) error {
	// One frame every duration/100 seconds, tiled into a single grid image.
	interval := duration / mosaicFrames
	if interval <= 0 {
		return errors.New("mosaic interval must be positive")
	}
	filter := fmt.Sprintf("fps=1/%f,scale=%d:%d,tile=%dx%d",
		interval, mosaicCellW, mosaicCellH, mosaicColumns, mosaicRows)

	cmd := exec.CommandContext(ctx, f.cfg.Transcode.FFmpegPath,
		"-i", inputPath,
		"-vf", filter,
		"-frames:v", "1",
		"-y", outputPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return errors.Errorf("ffmpeg mosaic failed: %v, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
