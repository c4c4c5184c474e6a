package recognizer

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvocr/dvocr/internal/dictionary"
	"github.com/dvocr/dvocr/internal/mocksession"
	"github.com/dvocr/dvocr/internal/onnxsession"
)

func blankImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.White)
		}
	}
	return img
}

func loadTestDict(t *testing.T, tokens []string) *dictionary.Dictionary {
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

func TestRecognizeSingleCropGreedyPath(t *testing.T) {
	dict := loadTestDict(t, []string{"h", "i"})
	v := dict.Size()

	// Build a deterministic [1, T, V] response directly, since the recognizer
	// always asks for output shape [N, T, V].
	fixedSession := mocksession.New([]string{"x"}, []string{"logits"},
		func(inputs []onnxsession.TensorInput) ([]onnxsession.TensorView, error) {
			shape := inputs[0].Shape
			n := int(shape[0])
			indices := []int{1, 2} // "h", "i"
			view := mocksession.GreedyPathLogits(indices, v, false, 10, -10)
			// Replicate across the batch dimension if more than one crop landed
			// in this batch.
			if n == 1 {
				return []onnxsession.TensorView{view}, nil
			}
			data := make([]float32, n*len(view.Data))
			for i := 0; i < n; i++ {
				copy(data[i*len(view.Data):], view.Data)
			}
			return []onnxsession.TensorView{{Data: data, Shape: []int64{int64(n), view.Shape[1], view.Shape[2]}}}, nil
		})

	rec := NewWithSession(Config{}, dict, fixedSession)
	defer rec.Close()

	results, err := rec.Recognize(context.Background(), []image.Image{blankImage(40, 48)})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "hi", results[0].Text)
}

func TestRecognizeEmptyInputReturnsNil(t *testing.T) {
	dict := loadTestDict(t, []string{"a"})
	rec := NewWithSession(Config{}, dict, mocksession.NewFixed([]string{"x"}, []string{"logits"}, nil))
	defer rec.Close()

	results, err := rec.Recognize(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestRecognizeDegradesBatchWithMalformedOutputShape(t *testing.T) {
	dict := loadTestDict(t, []string{"a"})

	// A 2D output violates the [N, T, V] contract the recognizer requires;
	// the batch should resolve to an empty Result rather than failing the
	// whole Recognize call.
	badSession := mocksession.New([]string{"x"}, []string{"logits"},
		func(inputs []onnxsession.TensorInput) ([]onnxsession.TensorView, error) {
			return []onnxsession.TensorView{{Data: []float32{0, 1}, Shape: []int64{1, 2}}}, nil
		})
	rec := NewWithSession(Config{}, dict, badSession)
	defer rec.Close()

	results, err := rec.Recognize(context.Background(), []image.Image{blankImage(40, 48)})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, Result{}, results[0])
}

func TestRecognizePreservesOriginalOrderAcrossBatches(t *testing.T) {
	dict := loadTestDict(t, []string{"a", "b"})
	v := dict.Size()

	session := mocksession.New([]string{"x"}, []string{"logits"},
		func(inputs []onnxsession.TensorInput) ([]onnxsession.TensorView, error) {
			shape := inputs[0].Shape
			n := int(shape[0])
			// "b" for a batch packed wider than the 320px baseline, "a" otherwise.
			indices := []int{1}
			if shape[3] > 400 {
				indices = []int{2}
			}
			view := mocksession.GreedyPathLogits(indices, v, false, 10, -10)
			data := make([]float32, n*len(view.Data))
			for i := 0; i < n; i++ {
				copy(data[i*len(view.Data):], view.Data)
			}
			return []onnxsession.TensorView{{Data: data, Shape: []int64{int64(n), view.Shape[1], view.Shape[2]}}}, nil
		})
	rec := NewWithSession(Config{}, dict, session)
	defer rec.Close()

	// Six narrow crops fill the first aspect-sorted batch; the wide crop,
	// listed first, lands alone in a second recognize call, and its "b" must
	// come back at index 0 once result order is restored.
	crops := []image.Image{
		blankImage(960, 48),
		blankImage(20, 48),
		blankImage(120, 48),
		blankImage(40, 48),
		blankImage(100, 48),
		blankImage(60, 48),
		blankImage(80, 48),
	}
	results, err := rec.Recognize(context.Background(), crops)
	require.NoError(t, err)
	require.Len(t, results, 7)
	assert.Equal(t, "b", results[0].Text)
	for _, r := range results[1:] {
		assert.Equal(t, "a", r.Text)
	}
}
