package env

import (
	"os"
	"strings"

	"github.com/ekisa-team/quietwave/internal/envvar"
)

// Environment is the deployment environment the process runs in.
type Environment string

const (
	// Development enables human-friendly, colourised logs.
	Development Environment = "development"

	// Production switches logs to JSON.
	Production Environment = "production"

	// Test is used by test binaries.
	Test Environment = "test"
)

// FromEnv reads the environment from QUIETWAVE_ENV, defaulting to development.
func FromEnv() Environment {
	return Parse(os.Getenv(envvar.QuietwaveEnv))
}

// Parse converts a raw value into an Environment. Unknown values fall back to development.
func Parse(raw string) Environment {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "prod", "production":
		return Production
	case "test":
		return Test
	default:
		return Development
	}
}

// IsProduction reports whether e is the production environment.
func (e Environment) IsProduction() bool {
	return e == Production
}
