package cmd

import (
	"strconv"

	"github.com/dvocr/dvocr/internal/classifier"
	"github.com/dvocr/dvocr/internal/config"
	"github.com/dvocr/dvocr/internal/detector"
	"github.com/dvocr/dvocr/internal/models"
	"github.com/dvocr/dvocr/internal/ocr"
	"github.com/dvocr/dvocr/internal/onnxsession"
	"github.com/dvocr/dvocr/internal/recognizer"
)

// buildProcessorConfig translates the loaded configuration into the
// internal ocr.Config the pipeline constructor expects, resolving model
// paths relative to cfg.ModelsDir when a path was left unset.
func buildProcessorConfig(cfg *config.Config) ocr.Config {
	modelsDir := cfg.ModelsDir
	gpu := buildGPUConfig(cfg.GPU)

	detCfg := detector.DefaultConfig()
	detCfg.MaxImageSize = orDefault(cfg.Pipeline.Detector.MaxImageSize, detCfg.MaxImageSize)
	detCfg.NumThreads = cfg.Pipeline.Detector.NumThreads
	detCfg.ProbThresh = float32(orDefaultF(cfg.Pipeline.Detector.ProbThresh, float64(detCfg.ProbThresh)))
	detCfg.BoxThresh = orDefaultF(cfg.Pipeline.Detector.BoxThresh, detCfg.BoxThresh)
	detCfg.UnclipRatio = orDefaultF(cfg.Pipeline.Detector.UnclipRatio, detCfg.UnclipRatio)
	detCfg.ModelPath = orDefaultS(cfg.Pipeline.Detector.ModelPath, models.DetectionPath(modelsDir))
	detCfg.GPU = gpu

	clsCfg := classifier.DefaultConfig()
	clsCfg.NumThreads = cfg.Pipeline.Classifier.NumThreads
	clsCfg.Threshold = orDefaultF(cfg.Pipeline.Classifier.Threshold, clsCfg.Threshold)
	clsCfg.ModelPath = orDefaultS(cfg.Pipeline.Classifier.ModelPath, models.ClassifierPath(modelsDir))
	clsCfg.GPU = gpu

	recCfg := recognizer.DefaultConfig()
	recCfg.NumThreads = cfg.Pipeline.Recognizer.NumThreads
	recCfg.ModelPath = orDefaultS(cfg.Pipeline.Recognizer.ModelPath, models.RecognitionPath(modelsDir))
	recCfg.DictionaryPath = orDefaultS(cfg.Pipeline.Recognizer.DictionaryPath, models.DictionaryPath(modelsDir))
	recCfg.GPU = gpu

	return ocr.Config{
		Detector:                   detCfg,
		Classifier:                 clsCfg,
		Recognizer:                 recCfg,
		EnableAngleClassification:  cfg.Pipeline.EnableAngleClassification,
		IncludeAllConfidenceScores: cfg.Pipeline.IncludeAllConfidenceScores,
	}
}

// newProcessor builds a Processor from the loaded configuration.
func newProcessor(cfg *config.Config) (*ocr.Processor, error) {
	return ocr.New(buildProcessorConfig(cfg))
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orDefaultF(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func orDefaultS(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// buildGPUConfig translates the shared GPU settings into the onnxsession
// form each stage's Config embeds; an unparseable memory limit is treated
// as "no limit" rather than failing pipeline construction.
func buildGPUConfig(gpu config.GPUConfig) onnxsession.GPUConfig {
	cfg := onnxsession.DefaultGPUConfig()
	cfg.UseGPU = gpu.Enabled
	cfg.DeviceID = gpu.Device
	if gpu.MemoryLimit != "" {
		if limit, err := strconv.ParseUint(gpu.MemoryLimit, 10, 64); err == nil {
			cfg.MemLimitBytes = limit
		}
	}
	return cfg
}
