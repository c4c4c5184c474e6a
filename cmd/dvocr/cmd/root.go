// Package cmd implements the dvocr command-line interface: image and PDF
// OCR, a quick text-presence check, model readiness, and the HTTP server.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dvocr/dvocr/internal/config"
	"github.com/dvocr/dvocr/internal/models"
)

var (
	configLoader *config.Loader
	globalConfig *config.Config
	cfgFile      string
)

var rootCmd = &cobra.Command{
	Use:   "dvocr",
	Short: "OCR pipeline for text detection and recognition",
	Long: `dvocr runs a DB-style text detector, an optional 180-degree angle
classifier, and an SVTR_LCNet/CTC recognizer over images and PDFs using an
embedded ONNX Runtime session, with no network access required at runtime.

Examples:
  dvocr detect photo.jpg
  dvocr hastext scan.png
  dvocr pdf document.pdf --format yaml
  dvocr serve --port 8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command; it is the sole entry point called by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default search: ., $HOME, $HOME/.config/dvocr, /etc/dvocr)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	defaultModelsDir := models.DefaultModelsDir
	if envDir := os.Getenv(models.EnvModelsDir); envDir != "" {
		defaultModelsDir = envDir
	}
	rootCmd.PersistentFlags().String("models-dir", defaultModelsDir,
		"directory containing ONNX models (also settable via DVOCR_MODELS_DIR)")
	rootCmd.PersistentFlags().StringP("format", "f", "json", "output format: json, yaml, or text")

	must(viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose")))
	must(viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level")))
	must(viper.BindPFlag("models_dir", rootCmd.PersistentFlags().Lookup("models-dir")))
	must(viper.BindPFlag("output.format", rootCmd.PersistentFlags().Lookup("format")))
}

func must(err error) {
	if err != nil {
		panic(fmt.Sprintf("failed to bind flag: %v", err))
	}
}

func initConfig() {
	configLoader = config.NewLoader()
}

// GetConfig returns the merged configuration: defaults, config file,
// environment variables, and bound CLI flags, in that order of precedence.
func GetConfig() *config.Config {
	loader := GetConfigLoader()
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = loader.LoadWithFile(cfgFile)
	} else {
		cfg, err = loader.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg)
	globalConfig = cfg
	return cfg
}

// GetConfigLoader returns the process-wide configuration loader.
func GetConfigLoader() *config.Loader {
	if configLoader == nil {
		configLoader = config.NewLoader()
	}
	return configLoader
}

func setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	} else {
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
