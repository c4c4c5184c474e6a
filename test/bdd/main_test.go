// Package bdd_test runs the Gherkin acceptance suite in features/ against
// the ocr.Processor wired entirely around internal/mocksession, mirroring
// the teacher's test/integration/cli godog harness but without shelling out
// to a built CLI binary or requiring real model files: every scenario here
// exercises the real detector/classifier/recognizer/processor code paths
// through a scripted ONNX session double.
package bdd_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/dvocr/dvocr/test/bdd/support"
)

// TestOCRPipelineFeatures discovers every .feature file under features/ and
// runs it as its own subtest, matching the teacher's discovery pattern.
func TestOCRPipelineFeatures(t *testing.T) {
	entries, err := os.ReadDir("features")
	if err != nil {
		t.Fatalf("failed to read features directory: %v", err)
	}

	format := os.Getenv("GODOG_FORMAT")
	if format == "" {
		format = "pretty"
	}

	found := false
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".feature") {
			continue
		}
		found = true
		featurePath := filepath.Join("features", e.Name())

		t.Run(e.Name(), func(t *testing.T) {
			suite := godog.TestSuite{
				ScenarioInitializer: initializeScenario,
				Options: &godog.Options{
					Format:   format,
					Paths:    []string{featurePath},
					TestingT: t,
				},
			}
			if suite.Run() != 0 {
				t.Fatalf("non-zero status returned for %s", featurePath)
			}
		})
	}

	if !found {
		t.Fatalf("no .feature files found in features/")
	}
}

// initializeScenario is godog's ScenarioInitializer: it runs once per
// scenario, so a fresh World (and therefore a fresh dictionary temp file and
// a clean slate of fixtures) backs every scenario independently.
func initializeScenario(sc *godog.ScenarioContext) {
	world, err := support.NewWorld()
	if err != nil {
		panic(fmt.Sprintf("failed to build scenario world: %v", err))
	}
	world.RegisterSteps(sc)

	sc.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		world.Close()
		return ctx, err
	})
}
