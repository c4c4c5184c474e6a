// Package config loads dvocr's configuration from a YAML file, environment
// variables, and defaults, using viper the way the rest of this pipeline's
// ambient stack does.
package config

// Config is the complete configuration for the dvocr CLI and server: model
// locations, pipeline thresholds, output formatting, and HTTP serving.
type Config struct {
	ModelsDir string `mapstructure:"models_dir" yaml:"models_dir" json:"models_dir"`
	LogLevel  string `mapstructure:"log_level"  yaml:"log_level"  json:"log_level"`
	Verbose   bool   `mapstructure:"verbose"    yaml:"verbose"    json:"verbose"`

	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`
	Output   OutputConfig   `mapstructure:"output"   yaml:"output"   json:"output"`
	Server   ServerConfig   `mapstructure:"server"   yaml:"server"   json:"server"`
	GPU      GPUConfig      `mapstructure:"gpu"      yaml:"gpu"      json:"gpu"`
}

// PipelineConfig holds the thresholds and toggles for the three OCR stages.
type PipelineConfig struct {
	Detector                   DetectorConfig   `mapstructure:"detector"                     yaml:"detector"                     json:"detector"`
	Classifier                 ClassifierConfig `mapstructure:"classifier"                   yaml:"classifier"                   json:"classifier"`
	Recognizer                 RecognizerConfig `mapstructure:"recognizer"                   yaml:"recognizer"                   json:"recognizer"`
	EnableAngleClassification  bool             `mapstructure:"enable_angle_classification"  yaml:"enable_angle_classification"  json:"enable_angle_classification"`
	IncludeAllConfidenceScores bool             `mapstructure:"include_all_confidence_scores" yaml:"include_all_confidence_scores" json:"include_all_confidence_scores"`
}

// DetectorConfig contains text detection settings.
type DetectorConfig struct {
	ModelPath    string  `mapstructure:"model_path"     yaml:"model_path"     json:"model_path"`
	ProbThresh   float64 `mapstructure:"prob_thresh"    yaml:"prob_thresh"    json:"prob_thresh"`
	BoxThresh    float64 `mapstructure:"box_thresh"     yaml:"box_thresh"     json:"box_thresh"`
	UnclipRatio  float64 `mapstructure:"unclip_ratio"   yaml:"unclip_ratio"   json:"unclip_ratio"`
	MaxImageSize int     `mapstructure:"max_image_size" yaml:"max_image_size" json:"max_image_size"`
	NumThreads   int     `mapstructure:"num_threads"    yaml:"num_threads"    json:"num_threads"`
}

// ClassifierConfig contains the 180-degree angle classifier's settings.
type ClassifierConfig struct {
	ModelPath  string  `mapstructure:"model_path" yaml:"model_path" json:"model_path"`
	Threshold  float64 `mapstructure:"threshold"  yaml:"threshold"  json:"threshold"`
	NumThreads int     `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
}

// RecognizerConfig contains text recognition settings.
type RecognizerConfig struct {
	ModelPath      string `mapstructure:"model_path"      yaml:"model_path"      json:"model_path"`
	DictionaryPath string `mapstructure:"dictionary_path" yaml:"dictionary_path" json:"dictionary_path"`
	NumThreads     int    `mapstructure:"num_threads"     yaml:"num_threads"     json:"num_threads"`
}

// OutputConfig contains result formatting settings.
type OutputConfig struct {
	Format              string `mapstructure:"format"               yaml:"format"               json:"format"`
	ConfidencePrecision int    `mapstructure:"confidence_precision" yaml:"confidence_precision" json:"confidence_precision"`
}

// ServerConfig contains HTTP/websocket server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host"             yaml:"host"             json:"host"`
	Port            int    `mapstructure:"port"             yaml:"port"             json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin"      yaml:"cors_origin"      json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb"    yaml:"max_upload_mb"    json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec"      yaml:"timeout_sec"      json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	MetricsEnabled  bool   `mapstructure:"metrics_enabled"  yaml:"metrics_enabled"  json:"metrics_enabled"`
}

// GPUConfig contains GPU acceleration settings shared by all three stages.
type GPUConfig struct {
	Enabled     bool   `mapstructure:"enabled"      yaml:"enabled"      json:"enabled"`
	Device      int    `mapstructure:"device"       yaml:"device"       json:"device"`
	MemoryLimit string `mapstructure:"memory_limit" yaml:"memory_limit" json:"memory_limit"`
}

// DefaultConfig returns the configuration this pipeline runs with absent any
// file, flag, or environment override.
func DefaultConfig() Config {
	return Config{
		ModelsDir: "models",
		LogLevel:  "info",
		Pipeline: PipelineConfig{
			Detector: DetectorConfig{
				ProbThresh:   0.3,
				BoxThresh:    0.6,
				UnclipRatio:  1.5,
				MaxImageSize: 960,
			},
			Classifier: ClassifierConfig{
				Threshold: 0.9,
			},
			EnableAngleClassification:  true,
			IncludeAllConfidenceScores: false,
		},
		Output: OutputConfig{
			Format:              "json",
			ConfidencePrecision: 4,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			MaxUploadMB:     25,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
			MetricsEnabled:  true,
		},
	}
}
