package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader() *Loader {
	return &Loader{v: viper.New()}
}

func TestLoadAppliesDefaultsWithNoConfigFile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()

	cfg, err := newTestLoader().Load()
	require.NoError(t, err)

	d := DefaultConfig()
	assert.Equal(t, d.Pipeline.Detector.BoxThresh, cfg.Pipeline.Detector.BoxThresh)
	assert.Equal(t, d.Output.Format, cfg.Output.Format)
	assert.Equal(t, d.Server.Port, cfg.Server.Port)
}

func TestLoadWithFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "dvocr.yaml")
	content := "output:\n  format: yaml\npipeline:\n  detector:\n    box_thresh: 0.42\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))

	cfg, err := newTestLoader().LoadWithFile(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Output.Format)
	assert.InDelta(t, 0.42, cfg.Pipeline.Detector.BoxThresh, 1e-9)
}

func TestLoadWithFileRejectsMissingPath(t *testing.T) {
	_, err := newTestLoader().LoadWithFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadWithFileEmptyPathFallsBackToLoad(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()

	cfg, err := newTestLoader().LoadWithFile("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Output.Format, cfg.Output.Format)
}

func TestLoadHonorsEnvironmentVariableOverride(t *testing.T) {
	t.Setenv("DVOCR_OUTPUT_FORMAT", "text")

	cfg, err := newTestLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.Output.Format)
}

func TestGetConfigSearchPathsIncludesCurrentAndEtc(t *testing.T) {
	paths := GetConfigSearchPaths()
	assert.Contains(t, paths, ".")
	assert.Contains(t, paths, "/etc/dvocr")
}
