package config

import (
	"fmt"
	"time"
)

// Config holds the main configuration for the application.
type Config struct {
	Version      string                 `json:"version"                 yaml:"version"`
	Server       ServerConfig           `json:"server"                  yaml:"server"`
	Transcoder   TranscoderConfig       `json:"transcoder"              yaml:"transcoder"`
	ONNX         ONNXConfig             `json:"onnx"                    yaml:"onnx"`
	Models       map[string]ModelConfig `json:"models"                  yaml:"models"`
	DefaultModel string                 `json:"default_model,omitempty" yaml:"default_model,omitempty"`
}

// ServerConfig holds the listener and request limits.
type ServerConfig struct {
	HTTPPort       int           `json:"http_port"        yaml:"http_port"`
	GRPCPort       int           `json:"grpc_port"        yaml:"grpc_port"`
	MaxUploadBytes int64         `json:"max_upload_bytes" yaml:"max_upload_bytes"`
	RequestTimeout time.Duration `json:"request_timeout"  yaml:"request_timeout"`
}

// TranscoderConfig holds settings for the ffmpeg subprocess.
type TranscoderConfig struct {
	FFmpegPath string        `json:"ffmpeg_path" yaml:"ffmpeg_path"`
	Timeout    time.Duration `json:"timeout"     yaml:"timeout"`
}

// ONNXConfig holds ONNX Runtime settings.
type ONNXConfig struct {
	SharedLibraryPath string `json:"shared_library_path,omitempty" yaml:"shared_library_path,omitempty"`
}

// ModelConfig holds configuration for a specific model.
type ModelConfig struct {
	Path    string `json:"path"              yaml:"path"`
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`

	// SampleRate is the rate the model was trained at. Zero means the model accepts any rate.
	SampleRate int `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`

	// SerializeInference forces one forward pass at a time on this model.
	SerializeInference bool `json:"serialize_inference,omitempty" yaml:"serialize_inference,omitempty"`

	// Options are passed to the backend as-is.
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// Validate checks cross-field constraints the schema cannot express.
func (c *Config) Validate() error {
	if len(c.Models) == 0 {
		return fmt.Errorf("%w: no models configured", ErrInvalid)
	}
	if _, ok := c.Models[c.DefaultModel]; !ok {
		return fmt.Errorf("%w: default model %q is not configured", ErrInvalid, c.DefaultModel)
	}
	for id, m := range c.Models {
		if m.Path == "" {
			return fmt.Errorf("%w: model %q has no path", ErrInvalid, id)
		}
		if m.SampleRate < 0 {
			return fmt.Errorf("%w: model %q has negative sample_rate", ErrInvalid, id)
		}
	}
	if c.Server.HTTPPort == c.Server.GRPCPort {
		return fmt.Errorf("%w: http and grpc ports are both %d", ErrInvalid, c.Server.HTTPPort)
	}
	return nil
}
