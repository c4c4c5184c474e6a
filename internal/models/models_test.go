package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
}

func TestDirPrefersExplicitOverride(t *testing.T) {
	assert.Equal(t, "/tmp/custom", Dir("/tmp/custom"))
}

func TestDirFallsBackToEnvVar(t *testing.T) {
	t.Setenv(EnvModelsDir, "/tmp/from-env")
	assert.Equal(t, "/tmp/from-env", Dir(""))
}

func TestPathHelpersResolveUnderModelsDir(t *testing.T) {
	base := "/tmp/models-root"
	assert.Equal(t, filepath.Join(base, typeDetection, DetectionModel), DetectionPath(base))
	assert.Equal(t, filepath.Join(base, typeClassifier, ClassificationModel), ClassifierPath(base))
	assert.Equal(t, filepath.Join(base, typeRecognition, RecognitionModel), RecognitionPath(base))
	assert.Equal(t, filepath.Join(base, DictionaryFile), DictionaryPath(base))
}

func TestValidateExistsReportsMissingFile(t *testing.T) {
	dir := t.TempDir()
	err := ValidateExists(filepath.Join(dir, "missing.onnx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.onnx")
}

func TestPrepareModelsReadyWithoutClassifier(t *testing.T) {
	dir := t.TempDir()
	touch(t, DetectionPath(dir))
	touch(t, RecognitionPath(dir))
	touch(t, DictionaryPath(dir))

	status := PrepareModels(dir)
	assert.True(t, status.IsReady)
	assert.False(t, status.ClassifierPresent)
	assert.Equal(t, []string{"classification (optional)"}, status.Missing)
	assert.Equal(t, ModelVersion, status.Version)
}

func TestPrepareModelsReadyWithClassifier(t *testing.T) {
	dir := t.TempDir()
	touch(t, DetectionPath(dir))
	touch(t, RecognitionPath(dir))
	touch(t, DictionaryPath(dir))
	touch(t, ClassifierPath(dir))

	status := PrepareModels(dir)
	assert.True(t, status.IsReady)
	assert.True(t, status.ClassifierPresent)
	assert.Empty(t, status.Missing)
}

func TestPrepareModelsNotReadyWhenDetectionMissing(t *testing.T) {
	dir := t.TempDir()
	touch(t, RecognitionPath(dir))
	touch(t, DictionaryPath(dir))

	status := PrepareModels(dir)
	assert.False(t, status.IsReady)
	assert.Contains(t, status.Missing, "detection")
}

func TestPrepareModelsNotReadyWhenEverythingMissing(t *testing.T) {
	dir := t.TempDir()
	status := PrepareModels(dir)
	assert.False(t, status.IsReady)
	assert.ElementsMatch(t, []string{"detection", "recognition", "dictionary", "classification (optional)"}, status.Missing)
}
