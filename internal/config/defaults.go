package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

const (
	// DefaultModelID names the model built from defaults.
	DefaultModelID = "denoiser_tcn"

	// DefaultModelPath is the artifact loaded when nothing else is configured.
	DefaultModelPath = "denoiser_tcn.onnx"

	defaultMaxUploadBytes    = 50 << 20
	defaultRequestTimeout    = 2 * time.Minute
	defaultTranscoderTimeout = time.Minute
	defaultFFmpegPath        = "ffmpeg"
	defaultBackend           = "onnxruntime"
)

// DefaultHTTPPort returns the default HTTP port.
func DefaultHTTPPort() int {
	return 5000
}

// DefaultGRPCPort returns the default gRPC port.
func DefaultGRPCPort() int {
	return 5001
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{
		Version: "1",
		Models: map[string]ModelConfig{
			DefaultModelID: {Path: DefaultModelPath},
		},
		DefaultModel: DefaultModelID,
	}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills zero-valued fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.HTTPPort == 0 {
		cfg.Server.HTTPPort = DefaultHTTPPort()
	}
	if cfg.Server.GRPCPort == 0 {
		cfg.Server.GRPCPort = DefaultGRPCPort()
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = defaultRequestTimeout
	}
	if cfg.Transcoder.FFmpegPath == "" {
		cfg.Transcoder.FFmpegPath = defaultFFmpegPath
	}
	if cfg.Transcoder.Timeout == 0 {
		cfg.Transcoder.Timeout = defaultTranscoderTimeout
	}

	for id, m := range cfg.Models {
		if m.Backend == "" {
			m.Backend = defaultBackend
			cfg.Models[id] = m
		}
	}

	if cfg.DefaultModel == "" && len(cfg.Models) == 1 {
		for id := range cfg.Models {
			cfg.DefaultModel = id
		}
	}
}

// DefaultConfigPath returns the default path for the quietwave config directory.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "quietwave", "config")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "quietwave")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "quietwave")
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "quietwave")
		}
		return filepath.Join(home, ".config", "quietwave")
	}
}
