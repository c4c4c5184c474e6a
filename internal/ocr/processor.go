package ocr

import (
	"context"
	"errors"
	"image"
	"log/slog"

	"github.com/disintegration/imaging"
	"github.com/dvocr/dvocr/internal/classifier"
	"github.com/dvocr/dvocr/internal/detector"
	"github.com/dvocr/dvocr/internal/models"
	"github.com/dvocr/dvocr/internal/recognizer"
)

// Processor runs the full detect -> classify -> recognize pipeline.
type Processor struct {
	cfg        Config
	detector   *detector.Detector
	classifier *classifier.Classifier
	recognizer *recognizer.Recognizer
}

// New loads the detection, recognition, and (if enabled) classification
// models described by cfg.
func New(cfg Config) (*Processor, error) {
	det, err := detector.New(cfg.Detector)
	if err != nil {
		return nil, err
	}
	rec, err := recognizer.New(cfg.Recognizer)
	if err != nil {
		_ = det.Close()
		return nil, err
	}

	var cls *classifier.Classifier
	if cfg.EnableAngleClassification {
		if err := models.ValidateExists(cfg.Classifier.ModelPath); err != nil {
			slog.Warn("angle classification disabled: model file missing", "path", cfg.Classifier.ModelPath)
		} else {
			cls, err = classifier.New(cfg.Classifier)
			if err != nil {
				_ = det.Close()
				_ = rec.Close()
				return nil, err
			}
		}
	}

	return &Processor{cfg: cfg, detector: det, classifier: cls, recognizer: rec}, nil
}

// NewWithComponents builds a Processor around already-constructed stages,
// primarily for tests that substitute mock sessions.
func NewWithComponents(cfg Config, det *detector.Detector, cls *classifier.Classifier, rec *recognizer.Recognizer) *Processor {
	return &Processor{cfg: cfg, detector: det, classifier: cls, recognizer: rec}
}

// Close releases every underlying inference session.
func (p *Processor) Close() error {
	var errs []error
	if p.detector != nil {
		errs = append(errs, p.detector.Close())
	}
	if p.classifier != nil {
		errs = append(errs, p.classifier.Close())
	}
	if p.recognizer != nil {
		errs = append(errs, p.recognizer.Close())
	}
	return errors.Join(errs...)
}

// ProcessImage runs the full pipeline on img: detection, crop extraction,
// angle classification (pass 1 on suspiciously-tall crops, pass 2 retry on
// low-confidence results), recognition, and character-box projection.
// Results are filtered by confidence and returned in detection order.
func (p *Processor) ProcessImage(ctx context.Context, img image.Image) ([]ProcessResult, error) {
	regions, err := p.detector.Detect(ctx, img)
	if err != nil {
		return nil, err
	}
	if len(regions) == 0 {
		return nil, nil
	}

	crops := make([]image.Image, len(regions))
	rotatedFlags := make([]bool, len(regions))
	for i, region := range regions {
		crop, _, err := warpCrop(img, region.Box)
		if err != nil {
			return nil, err
		}
		crops[i] = crop
	}

	examinedPass1 := make([]bool, len(regions))
	if p.classifier != nil {
		if err := p.classifyPass1(ctx, crops, rotatedFlags, examinedPass1); err != nil {
			return nil, err
		}
	}

	recResults, err := p.recognizer.Recognize(ctx, crops)
	if err != nil {
		return nil, err
	}

	if p.classifier != nil {
		if err := p.classifyPass2(ctx, crops, rotatedFlags, examinedPass1, recResults); err != nil {
			return nil, err
		}
	}

	threshold := minRecognitionScore
	if p.cfg.IncludeAllConfidenceScores {
		threshold = fallbackMinRecognitionScore
	}

	out := make([]ProcessResult, 0, len(regions))
	for i, region := range regions {
		rec := recResults[i]
		if rec.Confidence < threshold {
			continue
		}
		out = append(out, ProcessResult{
			Box:            region.Box,
			Text:           rec.Text,
			Confidence:     rec.Confidence,
			Rotated:        rotatedFlags[i],
			CharacterBoxes: projectCharacterBoxes(region.Box, rec.Spans, rotatedFlags[i]),
		})
	}
	return out, nil
}

// classifyPass1 runs the classifier on crops whose aspect ratio suggests
// they are sideways text, flipping and flagging any the classifier judges
// rotated 180 degrees.
func (p *Processor) classifyPass1(ctx context.Context, crops []image.Image, rotatedFlags []bool, examined []bool) error {
	var idxs []int
	var subset []image.Image
	for i, crop := range crops {
		if aspectRatio(crop.Bounds()) < angleAspectRatioThreshold {
			idxs = append(idxs, i)
			subset = append(subset, crop)
			examined[i] = true
		}
	}
	if len(subset) == 0 {
		return nil
	}

	results, err := p.classifier.Classify(ctx, subset)
	if err != nil {
		return err
	}
	for k, idx := range idxs {
		if results[k].Rotated180 {
			crops[idx] = imaging.Rotate180(crops[idx])
			rotatedFlags[idx] = !rotatedFlags[idx]
		}
	}
	return nil
}

// classifyPass2 retries classification+recognition on crops that were not
// examined in pass 1 and recognized below lowConfidenceThreshold, keeping
// the new result only when it strictly improves confidence.
func (p *Processor) classifyPass2(ctx context.Context, crops []image.Image, rotatedFlags []bool, examinedPass1 []bool, recResults []recognizer.Result) error {
	var idxs []int
	var subset []image.Image
	for i, res := range recResults {
		if examinedPass1[i] || res.Confidence >= lowConfidenceThreshold {
			continue
		}
		idxs = append(idxs, i)
		subset = append(subset, crops[i])
	}
	if len(subset) == 0 {
		return nil
	}

	clsResults, err := p.classifier.Classify(ctx, subset)
	if err != nil {
		return err
	}

	var retryIdxs []int
	var retryCrops []image.Image
	for k, idx := range idxs {
		if clsResults[k].Rotated180 {
			retryIdxs = append(retryIdxs, idx)
			retryCrops = append(retryCrops, imaging.Rotate180(crops[idx]))
		}
	}
	if len(retryCrops) == 0 {
		return nil
	}

	retryResults, err := p.recognizer.Recognize(ctx, retryCrops)
	if err != nil {
		return err
	}
	for k, idx := range retryIdxs {
		if retryResults[k].Confidence > recResults[idx].Confidence {
			recResults[idx] = retryResults[k]
			crops[idx] = retryCrops[k]
			rotatedFlags[idx] = !rotatedFlags[idx]
		}
	}
	return nil
}
