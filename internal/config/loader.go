package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"github.com/ekisa-team/quietwave/internal/envvar"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.yaml.in/yaml/v3"
)

const embeddedSchemaURL = "quietwave.v1.schema.json"

//go:embed schema.json
var embeddedSchema []byte

// LoadAndValidate loads and validates the configuration. An empty schemaPath validates against
// the schema compiled into the binary.
func LoadAndValidate(path, schemaPath string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: invalid YAML: %w", ErrInvalid, err)
	}

	schema, err := compileSchema(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal into Config struct: %w", ErrInvalid, err)
	}

	applyDefaults(&config)
	if err := ApplyEnv(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Load reads the config at path, falling back to Default when the file does not exist.
// Environment overrides apply in both cases.
func Load(path, schemaPath string) (*Config, error) {
	cfg, err := LoadAndValidate(path, schemaPath)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	slog.Info("Config file not found, using defaults", "path", path)

	cfg = Default()
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with QUIETWAVE_* environment variables.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv(envvar.QuietwaveServerHTTPPort); v != "" {
		port, err := parsePort(envvar.QuietwaveServerHTTPPort, v)
		if err != nil {
			return err
		}
		cfg.Server.HTTPPort = port
	}
	if v := os.Getenv(envvar.QuietwaveServerGRPCPort); v != "" {
		port, err := parsePort(envvar.QuietwaveServerGRPCPort, v)
		if err != nil {
			return err
		}
		cfg.Server.GRPCPort = port
	}
	if v := os.Getenv(envvar.QuietwaveFFmpegPath); v != "" {
		cfg.Transcoder.FFmpegPath = v
	}
	if v := os.Getenv(envvar.QuietwaveONNXRuntimeLib); v != "" {
		cfg.ONNX.SharedLibraryPath = v
	}
	if v := os.Getenv(envvar.QuietwaveModelPath); v != "" {
		m, ok := cfg.Models[cfg.DefaultModel]
		if !ok {
			return fmt.Errorf("%w: %s set but default model %q is not configured",
				ErrInvalid, envvar.QuietwaveModelPath, cfg.DefaultModel)
		}
		m.Path = v
		cfg.Models[cfg.DefaultModel] = m
	}
	return nil
}

func parsePort(name, v string) (int, error) {
	port, err := strconv.Atoi(v)
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("%w: %s=%q is not a valid port", ErrInvalid, name, v)
	}
	return port, nil
}

func compileSchema(schemaPath string) (*jsonschema.Schema, error) {
	if schemaPath != "" {
		return jsonschema.Compile(schemaPath)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(embeddedSchemaURL, bytes.NewReader(embeddedSchema)); err != nil {
		return nil, err
	}
	return compiler.Compile(embeddedSchemaURL)
}
