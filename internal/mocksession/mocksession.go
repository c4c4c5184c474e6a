// Package mocksession implements onnxsession.Session without linking a
// native ONNX Runtime library, so detector/classifier/recognizer/pipeline
// tests can run against synthetic but structurally realistic outputs.
package mocksession

import (
	"errors"
	"fmt"
	"math"

	"github.com/dvocr/dvocr/internal/ocrerrors"
	"github.com/dvocr/dvocr/internal/onnxsession"
)

// ResponseFunc computes a session's outputs for a given call's inputs. The
// returned slice must have one TensorView per configured output name.
type ResponseFunc func(inputs []onnxsession.TensorInput) ([]onnxsession.TensorView, error)

// Session is a scriptable fake: callers supply a ResponseFunc (or a fixed
// list of responses via NewFixed) and every Run call is recorded for later
// inspection.
type Session struct {
	inputNames  []string
	outputNames []string
	respond     ResponseFunc
	calls       []Call
	closed      bool
}

// Call records one Run invocation's inputs, for test assertions.
type Call struct {
	Inputs []onnxsession.TensorInput
}

// New builds a mock Session with the given input/output names, computing
// each Run's response via fn.
func New(inputNames, outputNames []string, fn ResponseFunc) *Session {
	return &Session{inputNames: inputNames, outputNames: outputNames, respond: fn}
}

// NewFixed builds a mock Session that returns the same outputs on every
// call, ignoring inputs.
func NewFixed(inputNames, outputNames []string, outputs []onnxsession.TensorView) *Session {
	return New(inputNames, outputNames, func([]onnxsession.TensorInput) ([]onnxsession.TensorView, error) {
		return outputs, nil
	})
}

func (s *Session) InputNames() []string  { return s.inputNames }
func (s *Session) OutputNames() []string { return s.outputNames }

func (s *Session) Run(inputs []onnxsession.TensorInput) ([]onnxsession.TensorView, error) {
	if s.closed {
		return nil, ocrerrors.NewArgumentError("mocksession.run", errors.New("session is closed"))
	}
	if len(inputs) != len(s.inputNames) {
		return nil, ocrerrors.NewArgumentError("mocksession.run",
			fmt.Errorf("expected %d inputs, got %d", len(s.inputNames), len(inputs)))
	}
	s.calls = append(s.calls, Call{Inputs: inputs})
	if s.respond == nil {
		return make([]onnxsession.TensorView, len(s.outputNames)), nil
	}
	return s.respond(inputs)
}

func (s *Session) Close() error {
	s.closed = true
	return nil
}

// Calls returns every Run invocation recorded so far.
func (s *Session) Calls() []Call { return s.calls }

// UniformMap returns a flat [1,1,H,W] probability map filled with a constant
// value, for exercising threshold/score boundary behavior in detector tests.
func UniformMap(w, h int, value float32) onnxsession.TensorView {
	if w <= 0 || h <= 0 {
		return onnxsession.TensorView{}
	}
	data := make([]float32, w*h)
	v := clamp01(value)
	for i := range data {
		data[i] = v
	}
	return onnxsession.TensorView{Data: data, Shape: []int64{1, 1, int64(h), int64(w)}}
}

// CenteredBlobMap returns a [1,1,H,W] Gaussian-like blob centered in the
// map, for exercising connected-component extraction around a single region.
func CenteredBlobMap(w, h int, peak float32, sigma float64) onnxsession.TensorView {
	if w <= 0 || h <= 0 {
		return onnxsession.TensorView{}
	}
	data := make([]float32, w*h)
	cx := float64(w-1) / 2.0
	cy := float64(h-1) / 2.0
	inv2s2 := 1.0 / (2.0 * sigma * sigma)
	for y := range h {
		for x := range w {
			dx := float64(x) - cx
			dy := float64(y) - cy
			v := float32(math.Exp(-(dx*dx+dy*dy)*inv2s2)) * peak
			data[y*w+x] = clamp01(v)
		}
	}
	return onnxsession.TensorView{Data: data, Shape: []int64{1, 1, int64(h), int64(w)}}
}

// TextStripeMap returns a [1,1,H,W] map of horizontal bright/dim stripes,
// mimicking stacked text lines for multi-region detector tests.
func TextStripeMap(w, h, lineHeight, gap int, hi, lo float32) onnxsession.TensorView {
	if w <= 0 || h <= 0 || lineHeight <= 0 || gap < 0 {
		return onnxsession.TensorView{}
	}
	data := make([]float32, w*h)
	period := lineHeight + gap
	for y := range h {
		v := lo
		if (y % period) < lineHeight {
			v = hi
		}
		v = clamp01(v)
		off := y * w
		for x := range w {
			data[off+x] = v
		}
	}
	return onnxsession.TensorView{Data: data, Shape: []int64{1, 1, int64(h), int64(w)}}
}

// GreedyPathLogits builds a [1, T, C] (or [1, C, T] if classesFirst) logits
// tensor such that greedy argmax over classes yields exactly indices, for
// deterministic CTC-decode tests. Use index 0 for the blank class.
func GreedyPathLogits(indices []int, classes int, classesFirst bool, high, low float32) onnxsession.TensorView {
	if classes <= 0 || len(indices) == 0 {
		return onnxsession.TensorView{}
	}
	t := len(indices)
	if classesFirst {
		shape := []int64{1, int64(classes), int64(t)}
		data := make([]float32, classes*t)
		for ti, c := range indices {
			for cls := range classes {
				v := low
				if cls == c {
					v = high
				}
				data[cls*t+ti] = v
			}
		}
		return onnxsession.TensorView{Data: data, Shape: shape}
	}
	shape := []int64{1, int64(t), int64(classes)}
	data := make([]float32, t*classes)
	for ti, c := range indices {
		for cls := range classes {
			v := low
			if cls == c {
				v = high
			}
			data[ti*classes+cls] = v
		}
	}
	return onnxsession.TensorView{Data: data, Shape: shape}
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
