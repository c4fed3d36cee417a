package backend

import (
	"context"

	"github.com/ekisa-team/quietwave/internal/tensor"
)

// BackendProvider is a string identifier for a backend provider.
type BackendProvider string

const (
	// BackendProviderONNXRuntime runs models through the ONNX Runtime C library.
	BackendProviderONNXRuntime BackendProvider = "onnxruntime"
)

// Backend defines the core interface for all inference backends.
type Backend interface {
	// Provider returns the backend identifier.
	Provider() BackendProvider

	// InputSpec describes the tensor the loaded model accepts.
	InputSpec() tensor.InputSpec

	// Infer runs a single forward pass.
	Infer(ctx context.Context, input *tensor.Tensor) (*tensor.Tensor, error)

	// Close cleans up resources.
	Close() error
}

// ConcurrentSafe is an optional interface for backends whose Infer may be called from
// several goroutines at once.
type ConcurrentSafe interface {
	ConcurrentSafe() bool
}

// IsConcurrentSafe reports whether b declares concurrent Infer calls safe.
func IsConcurrentSafe(b Backend) bool {
	cs, ok := b.(ConcurrentSafe)
	return ok && cs.ConcurrentSafe()
}

// Loader opens the model file at path and returns a ready backend. options carries the
// backend-specific settings of the model's config entry and may be nil.
type Loader func(ctx context.Context, path string, options map[string]any) (Backend, error)
