package onnxsession

import (
	"fmt"
	"strconv"

	onnxrt "github.com/yalue/onnxruntime_go"
)

// GPUConfig configures CUDA execution provider acceleration for a session.
type GPUConfig struct {
	UseGPU                bool
	DeviceID              int
	MemLimitBytes         uint64
	ArenaExtendStrategy   string // "kNextPowerOfTwo" or "kSameAsRequested"
	CUDNNConvAlgoSearch   string // "EXHAUSTIVE", "HEURISTIC", or "DEFAULT"
	DoCopyInDefaultStream bool
}

// DefaultGPUConfig returns CPU-only defaults.
func DefaultGPUConfig() GPUConfig {
	return GPUConfig{
		ArenaExtendStrategy:   "kNextPowerOfTwo",
		CUDNNConvAlgoSearch:   "DEFAULT",
		DoCopyInDefaultStream: true,
	}
}

// Validate checks field values are within the set onnxruntime accepts.
func (c GPUConfig) Validate() error {
	if !c.UseGPU {
		return nil
	}
	if c.DeviceID < 0 {
		return fmt.Errorf("gpu device id must be non-negative, got %d", c.DeviceID)
	}
	switch c.ArenaExtendStrategy {
	case "", "kNextPowerOfTwo", "kSameAsRequested":
	default:
		return fmt.Errorf("invalid arena extend strategy: %s", c.ArenaExtendStrategy)
	}
	switch c.CUDNNConvAlgoSearch {
	case "", "EXHAUSTIVE", "HEURISTIC", "DEFAULT":
	default:
		return fmt.Errorf("invalid cudnn conv algo search: %s", c.CUDNNConvAlgoSearch)
	}
	return nil
}

// configureGPU appends the CUDA execution provider to sessionOptions when
// cfg.UseGPU is set. Leaves sessionOptions untouched for CPU-only configs.
func configureGPU(sessionOptions *onnxrt.SessionOptions, cfg GPUConfig) error {
	if !cfg.UseGPU {
		return nil
	}
	cudaOpts, err := onnxrt.NewCUDAProviderOptions()
	if err != nil {
		return fmt.Errorf("create cuda provider options: %w", err)
	}
	defer func() { _ = cudaOpts.Destroy() }()

	settings := map[string]string{
		"device_id": strconv.Itoa(cfg.DeviceID),
	}
	if cfg.MemLimitBytes > 0 {
		settings["gpu_mem_limit"] = strconv.FormatUint(cfg.MemLimitBytes, 10)
	}
	if cfg.ArenaExtendStrategy != "" {
		settings["arena_extend_strategy"] = cfg.ArenaExtendStrategy
	}
	if cfg.CUDNNConvAlgoSearch != "" {
		settings["cudnn_conv_algo_search"] = cfg.CUDNNConvAlgoSearch
	}
	if cfg.DoCopyInDefaultStream {
		settings["do_copy_in_default_stream"] = "1"
	} else {
		settings["do_copy_in_default_stream"] = "0"
	}

	if err := cudaOpts.Update(settings); err != nil {
		return fmt.Errorf("update cuda provider options: %w", err)
	}
	if err := sessionOptions.AppendExecutionProviderCUDA(cudaOpts); err != nil {
		return fmt.Errorf("append cuda execution provider: %w", err)
	}
	return nil
}
