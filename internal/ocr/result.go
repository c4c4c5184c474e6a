package ocr

import "github.com/dvocr/dvocr/internal/geometry"

// CharacterBox is one decoded character projected back onto the original
// image as a 4-point quadrilateral (TL, TR, BR, BL).
type CharacterBox struct {
	Text       string
	Confidence float64
	Points     [4]geometry.Point
}

// ProcessResult is one recognized text region: its oriented box, decoded
// text, confidence, whether angle classification flipped it, and its
// per-character boxes.
type ProcessResult struct {
	Box            geometry.TextBox
	Text           string
	Confidence     float64
	Rotated        bool
	CharacterBoxes []CharacterBox
}

// QuickCheckResult is the outcome of the quick-check ("does this image
// contain text worth processing") pipeline.
type QuickCheckResult struct {
	HasText             bool
	DetectorHit         bool
	CandidatesExamined  int
	CandidatesEvaluated int
	BestScore           float64
}
