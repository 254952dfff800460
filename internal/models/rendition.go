package models

import (
	"fmt"
	"math"
)

// Rendition is one fixed-resolution output of a source video.
type Rendition struct {
	Height  int    `json:"height"`
	Profile string `json:"profile"`
}

// Width derives the 16:9 width for the rendition height, rounded up to an
// even number so the encoder accepts it.
func (r Rendition) Width() int {
	w := int(math.Round(float64(r.Height) * 16.0 / 9.0))
	if w%2 != 0 {
		w++
	}
	return w
}

func (r Rendition) Label() string {
	return fmt.Sprintf("%dp", r.Height)
}

// OutputName returns the media-bucket object name for this rendition.
func (r Rendition) OutputName(shortID string) string {
	return fmt.Sprintf("%s_%d.mp4", shortID, r.Height)
}

// MosaicName returns the media-bucket object name of the thumbnail collage.
func MosaicName(shortID string) string {
	return shortID + ".webp"
}

// DefaultLadder is the fixed rendition set every job produces.
func DefaultLadder() []Rendition {
	return []Rendition{
		{Height: 480, Profile: "main"},
		{Height: 720, Profile: "main"},
		{Height: 1080, Profile: "high"},
	}
}
