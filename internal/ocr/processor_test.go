package ocr

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvocr/dvocr/internal/detector"
	"github.com/dvocr/dvocr/internal/dictionary"
	"github.com/dvocr/dvocr/internal/mocksession"
	"github.com/dvocr/dvocr/internal/onnxsession"
	"github.com/dvocr/dvocr/internal/recognizer"
)

func whiteImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.White)
		}
	}
	return img
}

func loadDict(t *testing.T, tokens []string) *dictionary.Dictionary {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dict.txt")
	content := ""
	for _, tok := range tokens {
		content += tok + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	dict, err := dictionary.Load(path)
	require.NoError(t, err)
	return dict
}

// recognizeAllAs builds a recognizer session that decodes every crop in a
// batch to the same fixed token sequence at the given per-character
// confidence (via a strongly-peaked logit margin).
func recognizeAllAs(dict *dictionary.Dictionary, classIdx int) onnxsession.Session {
	v := dict.Size()
	return mocksession.New([]string{"x"}, []string{"logits"},
		func(inputs []onnxsession.TensorInput) ([]onnxsession.TensorView, error) {
			n := int(inputs[0].Shape[0])
			view := mocksession.GreedyPathLogits([]int{classIdx}, v, false, 10, -10)
			data := make([]float32, n*len(view.Data))
			for i := 0; i < n; i++ {
				copy(data[i*len(view.Data):], view.Data)
			}
			return []onnxsession.TensorView{{Data: data, Shape: []int64{int64(n), view.Shape[1], view.Shape[2]}}}, nil
		})
}

func buildProcessor(t *testing.T, detView onnxsession.TensorView, dict *dictionary.Dictionary, recSession onnxsession.Session) *Processor {
	t.Helper()
	detSession := mocksession.NewFixed([]string{"x"}, []string{"prob"}, []onnxsession.TensorView{detView})
	detCfg := detector.DefaultConfig()
	detCfg.MaxImageSize = 128
	detCfg.MinPixels = 1
	detCfg.MinSidePx = 1
	det := detector.NewWithSession(detCfg, detSession)

	rec := recognizer.NewWithSession(recognizer.Config{}, dict, recSession)

	return NewWithComponents(Config{}, det, nil, rec)
}

func TestProcessImageReturnsRecognizedRegion(t *testing.T) {
	dict := loadDict(t, []string{"a"})
	proc := buildProcessor(t, mocksession.UniformMap(64, 64, 0.95), dict, recognizeAllAs(dict, 1))

	results, err := proc.ProcessImage(context.Background(), whiteImage(64, 64))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].Text)
	assert.GreaterOrEqual(t, results[0].Confidence, minRecognitionScore)
}

func TestProcessImageNoRegionsReturnsNil(t *testing.T) {
	dict := loadDict(t, []string{"a"})
	proc := buildProcessor(t, mocksession.UniformMap(64, 64, 0.02), dict, recognizeAllAs(dict, 1))

	results, err := proc.ProcessImage(context.Background(), whiteImage(64, 64))
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestProcessImageFiltersLowConfidenceByDefault(t *testing.T) {
	dict := loadDict(t, []string{"a"})
	v := dict.Size()
	// A near-uniform logit margin decodes low-confidence text that should be
	// dropped when IncludeAllConfidenceScores is false (the default).
	lowConfSession := mocksession.New([]string{"x"}, []string{"logits"},
		func(inputs []onnxsession.TensorInput) ([]onnxsession.TensorView, error) {
			n := int(inputs[0].Shape[0])
			view := mocksession.GreedyPathLogits([]int{1}, v, false, 0.51, 0.49)
			data := make([]float32, n*len(view.Data))
			for i := 0; i < n; i++ {
				copy(data[i*len(view.Data):], view.Data)
			}
			return []onnxsession.TensorView{{Data: data, Shape: []int64{int64(n), view.Shape[1], view.Shape[2]}}}, nil
		})

	proc := buildProcessor(t, mocksession.UniformMap(64, 64, 0.95), dict, lowConfSession)
	results, err := proc.ProcessImage(context.Background(), whiteImage(64, 64))
	require.NoError(t, err)
	assert.Empty(t, results, "low-confidence recognition should be filtered out by default")
}

func TestNewFailsWhenDetectorModelPathEmpty(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Detector.ModelPath = "" // force detector construction to fail fast before classifier matters
	_, err := New(cfg)
	require.Error(t, err, "empty detector model path should fail construction regardless of classifier config")
}

func TestProcessorCloseIsIdempotent(t *testing.T) {
	dict := loadDict(t, []string{"a"})
	proc := buildProcessor(t, mocksession.UniformMap(64, 64, 0.02), dict, recognizeAllAs(dict, 1))
	require.NoError(t, proc.Close())
	require.NoError(t, proc.Close())
}
