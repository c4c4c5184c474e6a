// Package detector implements DB-style scene text detection: a probability
// map produced by an ONNX model is binarized, its connected components are
// traced into oriented quadrilaterals, scored against the map, and unclipped
// back out to the text's full extent.
package detector

import (
	"github.com/dvocr/dvocr/internal/models"
	"github.com/dvocr/dvocr/internal/onnxsession"
)

// Config controls preprocessing, thresholds, and session options for the
// text detector.
type Config struct {
	ModelPath    string
	MaxImageSize int // longest side the input image is resized to before inference
	NumThreads   int
	GPU          onnxsession.GPUConfig

	ProbThresh  float32 // binarization threshold applied to the probability map
	BoxThresh   float64 // minimum mean-probability-inside-rect to keep a region
	UnclipRatio float64 // outward expansion ratio applied to the scored box
	MaxRegions  int     // cap on candidate regions kept after the count-desc sort
	MinPixels   int     // components smaller than this are discarded before scoring
	MinSidePx   float64 // final minimum-area rectangles shorter than this are discarded
}

// DefaultConfig mirrors the DB post-processing defaults this detector family
// has used since the original PaddleOCR release: 0.3 binarization threshold,
// 0.6 box-score threshold, 1.5x unclip.
func DefaultConfig() Config {
	return Config{
		ModelPath:    models.DetectionPath(""),
		MaxImageSize: 960,
		NumThreads:   0,
		GPU:          onnxsession.DefaultGPUConfig(),
		ProbThresh:   0.3,
		BoxThresh:    0.6,
		UnclipRatio:  1.5,
		MaxRegions:   1000,
		MinPixels:    4,
		MinSidePx:    3,
	}
}
