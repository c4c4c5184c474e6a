// Package classifier runs the 180-degree text-line angle classifier: fixed
// 48x192 crops are batched and scored against two classes (upright,
// rotated-180), and low-confidence predictions are treated as upright.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/dvocr/dvocr/internal/models"
	"github.com/dvocr/dvocr/internal/ocrerrors"
	"github.com/dvocr/dvocr/internal/onnxsession"
	"github.com/dvocr/dvocr/internal/tensor"
)

const (
	inputHeight = 48
	inputWidth  = 192
	batchSize   = 6
	numClasses  = 2
)

// Config controls the classifier's model and decision threshold.
type Config struct {
	ModelPath  string
	NumThreads int
	GPU        onnxsession.GPUConfig
	Threshold  float64 // predictions below this confidence are treated as upright
}

// DefaultConfig returns the standard 0.9 confidence threshold this pipeline
// uses for angle correction.
func DefaultConfig() Config {
	return Config{
		ModelPath:  models.ClassifierPath(""),
		NumThreads: 0,
		GPU:        onnxsession.DefaultGPUConfig(),
		Threshold:  0.9,
	}
}

// Result is one crop's classification outcome.
type Result struct {
	Rotated180 bool
	Confidence float64
}

// Classifier batches fixed-size crops through the angle classification
// model, at most batchSize images per inference call.
type Classifier struct {
	cfg     Config
	session onnxsession.Session
	mu      sync.RWMutex
}

// New loads the classifier model at cfg.ModelPath.
func New(cfg Config) (*Classifier, error) {
	if cfg.ModelPath == "" {
		return nil, ocrerrors.NewConfigError("classifier.model_path", errors.New("must not be empty"))
	}
	session, err := onnxsession.New("classifier", cfg.ModelPath, onnxsession.Options{
		NumThreads: cfg.NumThreads,
		GPU:        cfg.GPU,
	})
	if err != nil {
		return nil, err
	}
	return &Classifier{cfg: cfg, session: session}, nil
}

// NewWithSession builds a Classifier around an existing session, for tests.
func NewWithSession(cfg Config, session onnxsession.Session) *Classifier {
	return &Classifier{cfg: cfg, session: session}
}

// Close releases the underlying inference session.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	return err
}

// Classify batches crops in groups of at most batchSize and returns one
// Result per crop, in input order.
func (c *Classifier) Classify(ctx context.Context, crops []image.Image) ([]Result, error) {
	if len(crops) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()
	if session == nil {
		return nil, ocrerrors.NewInferenceError("classifier", errors.New("session is closed"))
	}

	results := make([]Result, len(crops))
	for start := 0; start < len(crops); start += batchSize {
		end := start + batchSize
		if end > len(crops) {
			end = len(crops)
		}
		batch := crops[start:end]

		data, err := packBatch(batch)
		if err != nil {
			return nil, err
		}

		outputs, err := session.Run([]onnxsession.TensorInput{
			{Data: data, Shape: []int64{int64(len(batch)), 3, inputHeight, inputWidth}},
		})
		if err != nil {
			return nil, err
		}
		if len(outputs) != 1 {
			return nil, ocrerrors.NewInferenceError("classifier", fmt.Errorf("expected 1 output, got %d", len(outputs)))
		}
		out := outputs[0]
		if len(out.Shape) != 2 || out.Shape[1] < numClasses {
			return nil, ocrerrors.NewInferenceError("classifier", fmt.Errorf("unexpected output shape %v", out.Shape))
		}

		for i := range batch {
			logits := out.Data[i*int(out.Shape[1]) : i*int(out.Shape[1])+numClasses]
			probs := softmax2(logits)
			rotated := probs[1] > probs[0]
			conf := probs[0]
			if rotated {
				conf = probs[1]
			}
			if conf < c.cfg.Threshold {
				results[start+i] = Result{Rotated180: false, Confidence: conf}
				continue
			}
			results[start+i] = Result{Rotated180: rotated, Confidence: conf}
		}
	}
	return results, nil
}

// packBatch resizes each crop to fit within 48x192 preserving aspect ratio,
// clamping width to 192, and zero-pads any remainder, matching the
// recognizer's packing convention since both stages share the same
// normalization.
func packBatch(crops []image.Image) ([]float32, error) {
	data := make([]float32, len(crops)*3*inputHeight*inputWidth)
	params := tensor.Params{
		Order: tensor.BGR,
		Mean:  [3]float32{0.5, 0.5, 0.5},
		Std:   [3]float32{0.5, 0.5, 0.5},
	}
	for i, crop := range crops {
		resized := resizeForClassifier(crop)
		bounds := resized.Bounds()
		offset := i * 3 * inputHeight * inputWidth
		if err := tensor.PackCHW(resized, data, offset, bounds.Dx(), bounds.Dy(), params); err != nil {
			return nil, err
		}
		// Any unfilled width beyond bounds.Dx() remains zero (pre-padded).
	}
	return data, nil
}

// resizeForClassifier scales a crop to height 48, preserving aspect ratio,
// then clamps width to at most 192 and pads to exactly 192x48 with black.
func resizeForClassifier(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, inputWidth, inputHeight))
	}

	scale := float64(inputHeight) / float64(h)
	newWidth := int(math.Round(float64(w) * scale))
	if newWidth > inputWidth {
		newWidth = inputWidth
	}
	if newWidth < 1 {
		newWidth = 1
	}
	resized := imaging.Resize(img, newWidth, inputHeight, imaging.Lanczos)

	if newWidth == inputWidth {
		return resized
	}
	canvas := imaging.New(inputWidth, inputHeight, color.Black)
	return imaging.Paste(canvas, resized, image.Pt(0, 0))
}

func softmax2(logits []float32) [2]float64 {
	m := float32(math.Max(float64(logits[0]), float64(logits[1])))
	e0 := math.Exp(float64(logits[0] - m))
	e1 := math.Exp(float64(logits[1] - m))
	sum := e0 + e1
	return [2]float64{e0 / sum, e1 / sum}
}
