// Package models resolves on-disk paths for the detector, classifier,
// recognizer, and dictionary model files this pipeline depends on, and
// validates that a models directory is ready for use.
package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Known model filenames for the pp-ocrv5 release this pipeline targets.
const (
	DetectionModel      = "pp-ocrv5_det.onnx"
	ClassificationModel = "pp-ocrv5_cls.onnx"
	RecognitionModel    = "pp-ocrv5_rec.onnx"
	DictionaryFile      = "pp-ocrv5_keys.txt"
)

// ModelVersion identifies the model release this pipeline is built against.
// Surfaced in PrepareModels' result and in CLI/server version output.
const ModelVersion = "pp-ocrv5-202410"

const (
	typeDetection   = "detection"
	typeClassifier  = "classification"
	typeRecognition = "recognition"
)

// DefaultModelsDir is the directory name used when no explicit path is
// configured and the DVOCR_MODELS_DIR environment variable is unset.
const DefaultModelsDir = "models"

// EnvModelsDir is the environment variable that overrides the models
// directory, consistent with this project's DVOCR_ prefixed configuration.
const EnvModelsDir = "DVOCR_MODELS_DIR"

func findModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("could not find module root (go.mod not found)")
		}
		dir = parent
	}
}

// Dir resolves the models directory: an explicit override, else the
// DVOCR_MODELS_DIR environment variable, else "<module root>/models", else
// the relative default.
func Dir(override string) string {
	if override != "" {
		return override
	}
	if envDir := os.Getenv(EnvModelsDir); envDir != "" {
		return envDir
	}
	if root, err := findModuleRoot(); err == nil {
		return filepath.Join(root, DefaultModelsDir)
	}
	return DefaultModelsDir
}

func resolve(modelsDir, subdir, filename string) string {
	base := Dir(modelsDir)
	if subdir != "" {
		return filepath.Join(base, subdir, filename)
	}
	return filepath.Join(base, filename)
}

// DetectionPath returns the resolved path to the detector model.
func DetectionPath(modelsDir string) string {
	return resolve(modelsDir, typeDetection, DetectionModel)
}

// ClassifierPath returns the resolved path to the angle classifier model.
func ClassifierPath(modelsDir string) string {
	return resolve(modelsDir, typeClassifier, ClassificationModel)
}

// RecognitionPath returns the resolved path to the recognizer model.
func RecognitionPath(modelsDir string) string {
	return resolve(modelsDir, typeRecognition, RecognitionModel)
}

// DictionaryPath returns the resolved path to the recognition dictionary.
func DictionaryPath(modelsDir string) string {
	return resolve(modelsDir, "", DictionaryFile)
}

// ValidateExists returns an error naming the path if it does not exist.
func ValidateExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", path)
	}
	return nil
}
