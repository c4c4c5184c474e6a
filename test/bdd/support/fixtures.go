// Package support builds the fixtures (synthetic probability maps and
// scripted mock sessions) the acceptance feature steps wire into an
// ocr.Processor built entirely around internal/mocksession, so the
// end-to-end scenarios in features/ocr_pipeline.feature exercise the real
// pipeline code without a native ONNX Runtime or model files.
package support

import (
	"math"

	"github.com/dvocr/dvocr/internal/dictionary"
	"github.com/dvocr/dvocr/internal/mocksession"
	"github.com/dvocr/dvocr/internal/onnxsession"
)

// twoBlobMap returns a [1,1,H,W] map containing two well-separated Gaussian
// blobs, one centered at y=cy1 and one at y=cy2, for exercising the
// detector's connected-component extraction over two distinct text lines.
func twoBlobMap(w, h int, peak float32, sigma float64, cy1, cy2 int) onnxsession.TensorView {
	if w <= 0 || h <= 0 {
		return onnxsession.TensorView{}
	}
	data := make([]float32, w*h)
	cx := float64(w-1) / 2.0
	inv2s2 := 1.0 / (2.0 * sigma * sigma)
	blob := func(x, y, cyy int) float32 {
		dx := float64(x) - cx
		dy := float64(y - cyy)
		return float32(math.Exp(-(dx*dx+dy*dy)*inv2s2)) * peak
	}
	for y := range h {
		for x := range w {
			v := blob(x, y, cy1)
			if v2 := blob(x, y, cy2); v2 > v {
				v = v2
			}
			data[y*w+x] = clamp01(v)
		}
	}
	return onnxsession.TensorView{Data: data, Shape: []int64{1, 1, int64(h), int64(w)}}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// marginLogit returns the logit L such that a softmax over v classes with L
// at the target index and 0 elsewhere yields probability p at that index.
func marginLogit(v int, p float64) float32 {
	if p <= 0 {
		p = 1e-4
	}
	if p >= 1 {
		p = 1 - 1e-4
	}
	if v < 2 {
		v = 2
	}
	l := math.Log(p * float64(v-1) / (1 - p))
	return float32(l)
}

// buildSequenceLogits produces one item's [T,V] logits such that CTC greedy
// decoding emits exactly text, with every character's run averaging
// confidence p. Each character is isolated by a blank timestep so repeated
// letters ("hello") decode as distinct emissions rather than collapsing.
func buildSequenceLogits(dict *dictionary.Dictionary, text string, p float64) ([]float32, int) {
	v := dict.Size()
	var indices []int
	for _, r := range text {
		if idx := dict.Index(string(r)); idx >= 0 {
			indices = append(indices, idx)
		}
	}
	t := 2*len(indices) + 1
	data := make([]float32, t*v)
	blankLogit := marginLogit(v, 0.999)
	charLogit := marginLogit(v, p)

	step := 0
	writeRow := func(target int, val float32) {
		row := data[step*v : (step+1)*v]
		row[target] = val
		step++
	}
	writeRow(dict.BlankIndex(), blankLogit)
	for _, idx := range indices {
		writeRow(idx, charLogit)
		writeRow(dict.BlankIndex(), blankLogit)
	}
	return data, t
}

// confidenceFunc computes the target per-character confidence for the
// row-th item of the call-th invocation of a scripted recognizer session
// (call is 1-based, row is 0-based).
type confidenceFunc func(call, row int) float64

// scriptedRecognizerSession builds a mocksession.Session that always decodes
// every batch item to text, at a per-call/per-row confidence target chosen
// by confFn. This lets a single fixture express "same text every time",
// "low confidence on the first call, higher on retry", and "alternating
// confidence across a batch" with one code path.
func scriptedRecognizerSession(dict *dictionary.Dictionary, text string, confFn confidenceFunc) onnxsession.Session {
	call := 0
	return mocksession.New([]string{"x"}, []string{"logits"},
		func(inputs []onnxsession.TensorInput) ([]onnxsession.TensorView, error) {
			call++
			n := int(inputs[0].Shape[0])
			v := dict.Size()
			var t int
			var data []float32
			for i := 0; i < n; i++ {
				p := confFn(call, i)
				rowData, rt := buildSequenceLogits(dict, text, p)
				if data == nil {
					t = rt
					data = make([]float32, n*t*v)
				}
				copy(data[i*t*v:], rowData)
			}
			return []onnxsession.TensorView{{Data: data, Shape: []int64{int64(n), int64(t), int64(v)}}}, nil
		})
}

// rotateAlwaysClassifierSession builds a mocksession.Session that votes
// "rotated 180" for every crop in the batch, at the given softmax confidence.
func rotateAlwaysClassifierSession(confidence float64) onnxsession.Session {
	return mocksession.New([]string{"x"}, []string{"logits"},
		func(inputs []onnxsession.TensorInput) ([]onnxsession.TensorView, error) {
			n := int(inputs[0].Shape[0])
			data := make([]float32, n*2)
			for i := 0; i < n; i++ {
				data[i*2] = 0
				data[i*2+1] = marginLogit(2, confidence)
			}
			return []onnxsession.TensorView{{Data: data, Shape: []int64{int64(n), 2}}}, nil
		})
}
