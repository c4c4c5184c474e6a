// Package ocr orchestrates the full recognition pipeline: detection, crop
// extraction via perspective warp, angle classification with low-confidence
// retry, recognition, and character-box projection back onto the original
// image.
package ocr

import (
	"github.com/dvocr/dvocr/internal/classifier"
	"github.com/dvocr/dvocr/internal/detector"
	"github.com/dvocr/dvocr/internal/recognizer"
)

const (
	minRecognitionScore         = 0.80
	fallbackMinRecognitionScore = 0.50
	angleAspectRatioThreshold   = 0.50
	lowConfidenceThreshold      = 0.65
	quickCheckMaxCandidates     = 3
	quickCheckScoreThreshold    = 0.90
	tallCropRotateThreshold     = 1.5
	maxWarpDim                  = 10000
)

// Config wires together the three model configs plus the pipeline's
// behavioral knobs.
type Config struct {
	Detector                   detector.Config
	Classifier                 classifier.Config
	Recognizer                 recognizer.Config
	EnableAngleClassification  bool
	IncludeAllConfidenceScores bool
}

// DefaultConfig returns the standard pipeline configuration with angle
// classification enabled and only high-confidence results retained.
func DefaultConfig() Config {
	return Config{
		Detector:                   detector.DefaultConfig(),
		Classifier:                 classifier.DefaultConfig(),
		Recognizer:                 recognizer.DefaultConfig(),
		EnableAngleClassification:  true,
		IncludeAllConfidenceScores: false,
	}
}
