package detector

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/dvocr/dvocr/internal/ocrerrors"
	"github.com/dvocr/dvocr/internal/onnxsession"
)

// Detector runs DB-style text detection: one ONNX inference producing a
// probability map, followed by the postprocess pipeline in postprocess.go.
type Detector struct {
	cfg     Config
	session onnxsession.Session
	mu      sync.RWMutex
}

// New loads the detection model at cfg.ModelPath and prepares a Detector.
func New(cfg Config) (*Detector, error) {
	if cfg.ModelPath == "" {
		return nil, ocrerrors.NewConfigError("detector.model_path", errors.New("must not be empty"))
	}

	session, err := onnxsession.New("detector", cfg.ModelPath, onnxsession.Options{
		NumThreads: cfg.NumThreads,
		GPU:        cfg.GPU,
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("detector initialized", "model_path", cfg.ModelPath, "gpu", cfg.GPU.UseGPU)
	return &Detector{cfg: cfg, session: session}, nil
}

// NewWithSession builds a Detector around an already-constructed session,
// primarily for tests that substitute internal/mocksession.
func NewWithSession(cfg Config, session onnxsession.Session) *Detector {
	return &Detector{cfg: cfg, session: session}
}

// Close releases the underlying inference session.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.session == nil {
		return nil
	}
	err := d.session.Close()
	d.session = nil
	return err
}

// Detect runs detection on img and returns every surviving region in
// reading order.
func (d *Detector) Detect(ctx context.Context, img image.Image) ([]Region, error) {
	var regions []Region
	err := d.stream(ctx, img, func(r Region) bool {
		regions = append(regions, r)
		return true
	})
	if err != nil {
		return nil, err
	}
	sortReadingOrder(regions)
	return regions, nil
}

// Sink receives regions as postprocessing discovers them, in the internal
// count-descending order (before the final reading-order sort). Returning
// false stops further regions from being delivered, letting a caller like a
// quick text-presence check exit as soon as it has seen enough.
type Sink func(Region) bool

// DetectWithSink runs detection and streams each surviving region to sink
// as soon as it is scored and unclipped, without first sorting into reading
// order; sink may stop early by returning false.
func (d *Detector) DetectWithSink(ctx context.Context, img image.Image, sink Sink) error {
	return d.stream(ctx, img, sink)
}

func (d *Detector) stream(ctx context.Context, img image.Image, sink Sink) error {
	if img == nil {
		return ocrerrors.NewArgumentError("detector.detect", errors.New("nil image"))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	resized, scaleX, scaleY, err := resizeForDetection(img, d.cfg.MaxImageSize)
	if err != nil {
		return err
	}
	data, w, h, err := packInput(resized)
	if err != nil {
		return err
	}

	d.mu.RLock()
	session := d.session
	d.mu.RUnlock()
	if session == nil {
		return ocrerrors.NewInferenceError("detector", errors.New("session is closed"))
	}

	outputs, err := session.Run([]onnxsession.TensorInput{{Data: data, Shape: []int64{1, 3, int64(h), int64(w)}}})
	if err != nil {
		return err
	}
	if len(outputs) != 1 {
		return ocrerrors.NewInferenceError("detector", fmt.Errorf("expected 1 output, got %d", len(outputs)))
	}
	out := outputs[0]
	if len(out.Shape) != 4 {
		return ocrerrors.NewInferenceError("detector", fmt.Errorf("expected 4D output, got %dD", len(out.Shape)))
	}
	outH, outW := int(out.Shape[2]), int(out.Shape[3])

	mapScaleX := scaleX * float64(w) / float64(outW)
	mapScaleY := scaleY * float64(h) / float64(outH)

	postprocessStream(out.Data, outW, outH, mapScaleX, mapScaleY, d.cfg, sink)
	return nil
}

// postprocessStream mirrors postprocess but delivers each region to sink as
// soon as it survives scoring/unclipping, before the final reading-order
// sort a caller of Detect applies over the accumulated slice.
func postprocessStream(prob []float32, w, h int, scaleX, scaleY float64, cfg Config, sink Sink) int {
	mask := binarize(prob, w, h, cfg.ProbThresh)
	comps := connectedComponents(mask, w, h)
	comps = filterSmall(comps, cfg.MinPixels)

	sortByCountDesc(comps)
	if len(comps) > cfg.MaxRegions {
		comps = comps[:cfg.MaxRegions]
	}

	delivered := 0
	for _, c := range comps {
		region, ok := scoreAndUnclip(c, prob, w, h, scaleX, scaleY, cfg)
		if !ok {
			continue
		}
		delivered++
		if !sink(region) {
			break
		}
	}
	return delivered
}
