package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "dvocr"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "DVOCR"
)

// Loader handles loading configuration from files, environment variables,
// and command-line flags bound through the global viper instance.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader backed by the global viper
// instance, so flag bindings set up by cobra commands take effect.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// Load reads configuration from files and environment variables, applying
// defaults for anything unset.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// LoadWithFile reads configuration from a specific file path instead of
// searching the standard locations.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// GetViper returns the underlying viper instance, for cobra flag binding.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
		l.v.AddConfigPath(filepath.Join(home, ".config", "dvocr"))
	}
	l.v.AddConfigPath("/etc/dvocr")
	if configDir, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		l.v.AddConfigPath(filepath.Join(configDir, "dvocr"))
	}
}

func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func (l *Loader) setDefaults() {
	d := DefaultConfig()

	l.v.SetDefault("models_dir", d.ModelsDir)
	l.v.SetDefault("log_level", d.LogLevel)
	l.v.SetDefault("verbose", d.Verbose)

	l.v.SetDefault("pipeline.detector.prob_thresh", d.Pipeline.Detector.ProbThresh)
	l.v.SetDefault("pipeline.detector.box_thresh", d.Pipeline.Detector.BoxThresh)
	l.v.SetDefault("pipeline.detector.unclip_ratio", d.Pipeline.Detector.UnclipRatio)
	l.v.SetDefault("pipeline.detector.max_image_size", d.Pipeline.Detector.MaxImageSize)
	l.v.SetDefault("pipeline.detector.num_threads", d.Pipeline.Detector.NumThreads)

	l.v.SetDefault("pipeline.classifier.threshold", d.Pipeline.Classifier.Threshold)
	l.v.SetDefault("pipeline.classifier.num_threads", d.Pipeline.Classifier.NumThreads)

	l.v.SetDefault("pipeline.recognizer.num_threads", d.Pipeline.Recognizer.NumThreads)

	l.v.SetDefault("pipeline.enable_angle_classification", d.Pipeline.EnableAngleClassification)
	l.v.SetDefault("pipeline.include_all_confidence_scores", d.Pipeline.IncludeAllConfidenceScores)

	l.v.SetDefault("output.format", d.Output.Format)
	l.v.SetDefault("output.confidence_precision", d.Output.ConfidencePrecision)

	l.v.SetDefault("server.host", d.Server.Host)
	l.v.SetDefault("server.port", d.Server.Port)
	l.v.SetDefault("server.cors_origin", d.Server.CORSOrigin)
	l.v.SetDefault("server.max_upload_mb", d.Server.MaxUploadMB)
	l.v.SetDefault("server.timeout_sec", d.Server.TimeoutSec)
	l.v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	l.v.SetDefault("server.metrics_enabled", d.Server.MetricsEnabled)

	l.v.SetDefault("gpu.enabled", d.GPU.Enabled)
	l.v.SetDefault("gpu.device", d.GPU.Device)
	l.v.SetDefault("gpu.memory_limit", d.GPU.MemoryLimit)
}

// GetConfigSearchPaths returns the paths where configuration files are
// searched, for diagnostics.
func GetConfigSearchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home, filepath.Join(home, ".config", "dvocr"))
	}
	if configDir, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		paths = append(paths, filepath.Join(configDir, "dvocr"))
	}
	return append(paths, "/etc/dvocr")
}
