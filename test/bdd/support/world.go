package support

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/cucumber/godog"

	"github.com/dvocr/dvocr/internal/classifier"
	"github.com/dvocr/dvocr/internal/detector"
	"github.com/dvocr/dvocr/internal/dictionary"
	"github.com/dvocr/dvocr/internal/mocksession"
	"github.com/dvocr/dvocr/internal/ocr"
	"github.com/dvocr/dvocr/internal/onnxsession"
	"github.com/dvocr/dvocr/internal/recognizer"
)

// World holds one scenario's fixtures and the pipeline's last outcome. A
// fresh World is built per scenario by NewWorld, matching the teacher's
// test/integration/cli TestContext pattern.
type World struct {
	dict *dictionary.Dictionary

	img       image.Image
	detView   onnxsession.TensorView
	recSess   onnxsession.Session
	clsSess   onnxsession.Session
	hasAngle  bool
	lastProc  *ocr.Processor
	results   []ocr.ProcessResult
	quick     ocr.QuickCheckResult
	lastErr   error
}

// NewWorld builds a World around a fixed dictionary covering every letter
// the feature file's scenarios decode.
func NewWorld() (*World, error) {
	dict, err := loadDictionary([]string{"h", "e", "l", "o", "i", "n", "k"})
	if err != nil {
		return nil, err
	}
	return &World{dict: dict}, nil
}

func loadDictionary(tokens []string) (*dictionary.Dictionary, error) {
	dir, err := os.MkdirTemp("", "dvocr-bdd-dict")
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "dict.txt")
	content := ""
	for _, tok := range tokens {
		content += tok + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return nil, err
	}
	return dictionary.Load(path)
}

func solidImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.White)
		}
	}
	return img
}

// RegisterSteps wires every Given/When/Then in features/ocr_pipeline.feature
// to this World's methods.
func (w *World) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Given(`^a blank (\d+)x(\d+) image$`, w.givenImage)
	sc.Given(`^a (\d+)x(\d+) image with one detected region scoring ([\d.]+)$`, w.givenOneRegion)
	sc.Given(`^a (\d+)x(\d+) image with two detected regions on separate lines$`, w.givenTwoRegions)
	sc.Given(`^no region in the probability map clears the detection threshold$`, w.givenNoRegionClearsThreshold)
	sc.Given(`^the recognizer decodes every crop to "([^"]*)" at confidence ([\d.]+)$`, w.givenFixedRecognition)
	sc.Given(`^the recognizer decodes crops to "([^"]*)" at confidence ([\d.]+) then ([\d.]+) after rotation$`, w.givenRetryRecognition)
	sc.Given(`^the recognizer alternates confidence ([\d.]+) then ([\d.]+) across the batch$`, w.givenAlternatingRecognition)
	sc.Given(`^the classifier always votes rotated with confidence ([\d.]+)$`, w.givenClassifierAlwaysRotates)

	sc.When(`^I run the full pipeline$`, w.whenRunPipeline)
	sc.When(`^I run the full pipeline with angle classification enabled$`, w.whenRunPipelineWithAngle)
	sc.When(`^I run the full pipeline with includeAllConfidenceScores (true|false)$`, w.whenRunPipelineIncludeAll)
	sc.When(`^I run the quick text-presence check$`, w.whenRunQuickCheck)

	sc.Then(`^the pipeline returns (\d+) regions?$`, w.thenRegionCount)
	sc.Then(`^region (\d+) has text "([^"]*)"$`, w.thenRegionText)
	sc.Then(`^region (\d+) has confidence at least ([\d.]+)$`, w.thenRegionConfidenceAtLeast)
	sc.Then(`^region (\d+) is above region (\d+)$`, w.thenRegionAbove)
	sc.Then(`^region (\d+) is marked rotated$`, w.thenRegionRotated)
	sc.Then(`^the quick check reports no text$`, w.thenQuickCheckNoText)
}

func (w *World) givenImage(width, height int) error {
	w.img = solidImage(width, height)
	return nil
}

func (w *World) givenNoRegionClearsThreshold() error {
	w.detView = mocksession.UniformMap(64, 64, 0.02)
	return nil
}

func (w *World) givenOneRegion(width, height int, score float64) error {
	w.img = solidImage(width, height)
	w.detView = mocksession.UniformMap(64, 64, float32(score))
	return nil
}

func (w *World) givenTwoRegions(width, height int) error {
	w.img = solidImage(width, height)
	w.detView = mocksession.TextStripeMap(64, 96, 24, 24, 0.95, 0.02)
	return nil
}

func (w *World) givenFixedRecognition(text string, confidence float64) error {
	w.recSess = scriptedRecognizerSession(w.dict, text, func(int, int) float64 { return confidence })
	return nil
}

func (w *World) givenRetryRecognition(text string, first, second float64) error {
	w.recSess = scriptedRecognizerSession(w.dict, text, func(call, _ int) float64 {
		if call == 1 {
			return first
		}
		return second
	})
	return nil
}

func (w *World) givenAlternatingRecognition(even, odd float64) error {
	w.recSess = scriptedRecognizerSession(w.dict, "o", func(_, row int) float64 {
		if row%2 == 0 {
			return even
		}
		return odd
	})
	return nil
}

func (w *World) givenClassifierAlwaysRotates(confidence float64) error {
	w.clsSess = rotateAlwaysClassifierSession(confidence)
	w.hasAngle = true
	return nil
}

func (w *World) buildProcessor(enableAngle, includeAll bool) (*ocr.Processor, error) {
	if w.detView.Data == nil {
		return nil, fmt.Errorf("no detection fixture configured for this scenario")
	}
	if w.recSess == nil {
		return nil, fmt.Errorf("no recognizer fixture configured for this scenario")
	}

	detSession := mocksession.NewFixed([]string{"x"}, []string{"prob"}, []onnxsession.TensorView{w.detView})
	detCfg := detector.DefaultConfig()
	detCfg.MinPixels = 1
	detCfg.MinSidePx = 1
	det := detector.NewWithSession(detCfg, detSession)

	rec := recognizer.NewWithSession(recognizer.Config{}, w.dict, w.recSess)

	var cls *classifier.Classifier
	if enableAngle {
		if w.clsSess == nil {
			return nil, fmt.Errorf("angle classification requested but no classifier fixture configured")
		}
		cls = classifier.NewWithSession(classifier.DefaultConfig(), w.clsSess)
	}

	cfg := ocr.Config{EnableAngleClassification: enableAngle, IncludeAllConfidenceScores: includeAll}
	return ocr.NewWithComponents(cfg, det, cls, rec), nil
}

func (w *World) runPipeline(enableAngle, includeAll bool) error {
	proc, err := w.buildProcessor(enableAngle, includeAll)
	if err != nil {
		return err
	}
	w.lastProc = proc
	w.results, w.lastErr = proc.ProcessImage(context.Background(), w.img)
	return w.lastErr
}

func (w *World) whenRunPipeline() error {
	return w.runPipeline(w.hasAngle, false)
}

func (w *World) whenRunPipelineWithAngle() error {
	return w.runPipeline(true, false)
}

func (w *World) whenRunPipelineIncludeAll(flag string) error {
	return w.runPipeline(w.hasAngle, flag == "true")
}

func (w *World) whenRunQuickCheck() error {
	proc, err := w.buildProcessor(w.hasAngle, false)
	if err != nil {
		return err
	}
	w.lastProc = proc
	w.quick, w.lastErr = proc.HasHighConfidenceText(context.Background(), w.img)
	return w.lastErr
}

func (w *World) thenRegionCount(n int) error {
	if len(w.results) != n {
		return fmt.Errorf("expected %d regions, got %d (err=%v)", n, len(w.results), w.lastErr)
	}
	return nil
}

func (w *World) thenRegionText(index int, text string) error {
	if index < 1 || index > len(w.results) {
		return fmt.Errorf("region %d out of range (%d regions)", index, len(w.results))
	}
	got := w.results[index-1].Text
	if got != text {
		return fmt.Errorf("region %d: expected text %q, got %q", index, text, got)
	}
	return nil
}

func (w *World) thenRegionConfidenceAtLeast(index int, min float64) error {
	if index < 1 || index > len(w.results) {
		return fmt.Errorf("region %d out of range (%d regions)", index, len(w.results))
	}
	got := w.results[index-1].Confidence
	if got < min {
		return fmt.Errorf("region %d: expected confidence >= %v, got %v", index, min, got)
	}
	return nil
}

func (w *World) thenRegionAbove(top, bottom int) error {
	if top < 1 || top > len(w.results) || bottom < 1 || bottom > len(w.results) {
		return fmt.Errorf("region index out of range (%d regions)", len(w.results))
	}
	topY := w.results[top-1].Box.ToRect().Top
	bottomY := w.results[bottom-1].Box.ToRect().Top
	if topY >= bottomY {
		return fmt.Errorf("expected region %d (top=%v) above region %d (top=%v)", top, topY, bottom, bottomY)
	}
	return nil
}

func (w *World) thenRegionRotated(index int) error {
	if index < 1 || index > len(w.results) {
		return fmt.Errorf("region %d out of range (%d regions)", index, len(w.results))
	}
	if !w.results[index-1].Rotated {
		return fmt.Errorf("region %d: expected rotated flag set", index)
	}
	return nil
}

func (w *World) thenQuickCheckNoText() error {
	if w.quick.HasText {
		return fmt.Errorf("expected quick check to report no text, got HasText=true")
	}
	return nil
}

// Close releases any processor built during the scenario.
func (w *World) Close() {
	if w.lastProc != nil {
		_ = w.lastProc.Close()
	}
}
