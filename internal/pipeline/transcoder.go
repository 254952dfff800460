package pipeline

import (
	"context"

	"github.com/streamforge/vodengine/internal/models"
)

// Transcoder abstracts the external media tooling so the orchestration can be
// exercised without a real ffmpeg binary.
type Transcoder interface {
	// Probe returns the source duration in seconds, erroring on anything it
	// cannot read a valid duration from.
	Probe(ctx context.Context, inputPath string) (float64, error)

	// RenderRendition encodes inputPath into one rendition at outputPath,
	// reporting raw coarse progress percentages through onProgress.
	RenderRendition(ctx context.Context, inputPath, outputPath string, rendition models.Rendition, duration float64, onProgress func(percent float64)) error

	// RenderMosaic tiles 100 evenly spaced frames into a single collage
	// image at outputPath.
	RenderMosaic(ctx context.Context, inputPath, outputPath string, duration float64) error
}
