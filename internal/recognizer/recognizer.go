package recognizer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/dvocr/dvocr/internal/dictionary"
	"github.com/dvocr/dvocr/internal/ocrerrors"
	"github.com/dvocr/dvocr/internal/onnxsession"
)

// Recognizer batches crops through the recognition model and decodes each
// into text with CTC greedy decoding.
type Recognizer struct {
	cfg     Config
	dict    *dictionary.Dictionary
	session onnxsession.Session
	mu      sync.RWMutex
}

// New loads the recognition model and its dictionary from cfg.
func New(cfg Config) (*Recognizer, error) {
	if cfg.ModelPath == "" {
		return nil, ocrerrors.NewConfigError("recognizer.model_path", errors.New("must not be empty"))
	}
	dict, err := dictionary.Load(cfg.DictionaryPath)
	if err != nil {
		return nil, ocrerrors.NewConfigError("recognizer.dictionary_path", err)
	}
	session, err := onnxsession.New("recognizer", cfg.ModelPath, onnxsession.Options{
		NumThreads: cfg.NumThreads,
		GPU:        cfg.GPU,
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("recognizer initialized", "model_path", cfg.ModelPath, "dictionary_size", dict.Size())
	return &Recognizer{cfg: cfg, dict: dict, session: session}, nil
}

// NewWithSession builds a Recognizer around an existing session and
// dictionary, for tests.
func NewWithSession(cfg Config, dict *dictionary.Dictionary, session onnxsession.Session) *Recognizer {
	return &Recognizer{cfg: cfg, dict: dict, session: session}
}

// Close releases the underlying inference session.
func (r *Recognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return nil
	}
	err := r.session.Close()
	r.session = nil
	return err
}

// Recognize batches crops by ascending aspect ratio, runs one inference
// call per batch, and returns one Result per crop restored to the caller's
// original order.
func (r *Recognizer) Recognize(ctx context.Context, crops []image.Image) ([]Result, error) {
	if len(crops) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	session := r.session
	r.mu.RUnlock()
	if session == nil {
		return nil, ocrerrors.NewInferenceError("recognizer", errors.New("session is closed"))
	}

	results := make([]Result, len(crops))
	for _, plan := range planBatches(crops) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		packedWidth := packedWidthFor(plan.ratios)
		data, contentWidths, err := packBatch(crops, plan.originalIndex, packedWidth)
		if err != nil {
			return nil, err
		}

		outputs, err := session.Run([]onnxsession.TensorInput{
			{Data: data, Shape: []int64{int64(len(plan.originalIndex)), 3, recHeight, int64(packedWidth)}},
		})
		if err != nil {
			return nil, err
		}
		if len(outputs) != 1 {
			r.warnBatch(plan.originalIndex, fmt.Errorf("expected 1 output, got %d", len(outputs)))
			continue
		}
		out := outputs[0]
		if len(out.Shape) != 3 {
			r.warnBatch(plan.originalIndex, fmt.Errorf("expected 3D output, got %dD", len(out.Shape)))
			continue
		}
		n, t, v := int(out.Shape[0]), int(out.Shape[1]), int(out.Shape[2])
		if n != len(plan.originalIndex) {
			r.warnBatch(plan.originalIndex, fmt.Errorf("output batch %d does not match input batch %d", n, len(plan.originalIndex)))
			continue
		}

		perItem := t * v
		for i, origIdx := range plan.originalIndex {
			logits := out.Data[i*perItem : (i+1)*perItem]
			results[origIdx] = decodeCTCGreedy(logits, t, v, r.dict, packedWidth, contentWidths[i])
		}
	}
	return results, nil
}

// warnBatch records a non-fatal DecodeWarning for every crop in a batch whose
// inference output had an unusable shape, leaving each as a zero-value
// Result rather than failing the whole Recognize call over one bad batch.
func (r *Recognizer) warnBatch(originalIndex []int, cause error) {
	warning := ocrerrors.NewDecodeWarning("recognizer.batch", cause)
	slog.Warn("recognizer dropped a batch", "error", warning, "items", len(originalIndex))
}
