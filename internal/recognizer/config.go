// Package recognizer runs SVTR_LCNet-style text recognition: crops are
// aspect-sorted into batches, packed into a shared dynamic-width tensor, and
// decoded with CTC greedy decoding into text and per-character spans.
package recognizer

import (
	"github.com/dvocr/dvocr/internal/models"
	"github.com/dvocr/dvocr/internal/onnxsession"
)

const (
	recHeight   = 48
	batchSize   = 6
	baseWhRatio = 320.0 / 48.0
	maxPackedW  = 10000
	minSpanBase = 1e-3
)

// Config controls the recognizer's model.
type Config struct {
	ModelPath      string
	DictionaryPath string
	NumThreads     int
	GPU            onnxsession.GPUConfig
}

// DefaultConfig returns the standard recognition model and dictionary paths.
func DefaultConfig() Config {
	return Config{
		ModelPath:      models.RecognitionPath(""),
		DictionaryPath: models.DictionaryPath(""),
		NumThreads:     0,
		GPU:            onnxsession.DefaultGPUConfig(),
	}
}

// CharacterSpan is one decoded character from CTC decoding: its text,
// confidence, and fractional position along the recognition strip's width.
type CharacterSpan struct {
	Text       string
	Confidence float64
	StartRatio float64
	EndRatio   float64
}

// Result is one crop's recognition outcome.
type Result struct {
	Text       string
	Confidence float64
	Spans      []CharacterSpan
}
