package ocr

import (
	"context"
	"image"

	"github.com/disintegration/imaging"
	"github.com/dvocr/dvocr/internal/detector"
)

// HasHighConfidenceText runs a cheap presence check: it collects up to
// quickCheckMaxCandidates detections scoring at least quickCheckScoreThreshold,
// then crops, classifies, and recognizes them one at a time in detection
// order, stopping as soon as one clears minRecognitionScore with non-empty
// text.
func (p *Processor) HasHighConfidenceText(ctx context.Context, img image.Image) (QuickCheckResult, error) {
	var candidates []detector.Region
	err := p.detector.DetectWithSink(ctx, img, func(r detector.Region) bool {
		if r.Confidence >= quickCheckScoreThreshold {
			candidates = append(candidates, r)
		}
		return len(candidates) < quickCheckMaxCandidates
	})
	if err != nil {
		return QuickCheckResult{}, err
	}

	result := QuickCheckResult{DetectorHit: len(candidates) > 0}
	if len(candidates) == 0 {
		return result, nil
	}

	for _, region := range candidates {
		result.CandidatesExamined++

		crop, _, err := warpCrop(img, region.Box)
		if err != nil {
			return result, err
		}

		if p.classifier != nil {
			clsResults, err := p.classifier.Classify(ctx, []image.Image{crop})
			if err != nil {
				return result, err
			}
			if clsResults[0].Rotated180 {
				crop = imaging.Rotate180(crop)
			}
		}

		recResults, err := p.recognizer.Recognize(ctx, []image.Image{crop})
		if err != nil {
			return result, err
		}
		result.CandidatesEvaluated++

		score := recResults[0].Confidence
		if score > result.BestScore {
			result.BestScore = score
		}
		if score >= minRecognitionScore && recResults[0].Text != "" {
			result.HasText = true
			break
		}
	}
	return result, nil
}
