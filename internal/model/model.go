package model

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ekisa-team/quietwave/internal/backend"
	"github.com/ekisa-team/quietwave/internal/config"
	"github.com/ekisa-team/quietwave/internal/tensor"
)

// ModelStatus is the current loading status of a model.
type ModelStatus string

const (
	// ModelStatusUnloaded indicates that the model is not loaded.
	ModelStatusUnloaded ModelStatus = "unloaded"

	// ModelStatusLoading indicates that the model is being loaded.
	ModelStatusLoading ModelStatus = "loading"

	// ModelStatusLoaded indicates that the model is loaded.
	ModelStatusLoaded ModelStatus = "loaded"

	// ModelStatusFailed indicates that the model failed to load.
	ModelStatusFailed ModelStatus = "failed"

	// ModelStatusUnloading indicates that the model is being unloaded.
	ModelStatusUnloading ModelStatus = "unloading"
)

// ModelInfo is a point-in-time view of a model instance.
type ModelInfo struct {
	ID         string      `json:"id"`
	Path       string      `json:"path"`
	Backend    string      `json:"backend"`
	Status     ModelStatus `json:"status"`
	Error      string      `json:"error,omitempty"`
	SampleRate int         `json:"sample_rate,omitempty"`
	LoadedAt   *time.Time  `json:"loaded_at,omitempty"`
}

// ModelInstance is a configured model and, once loaded, the backend serving it.
type ModelInstance struct {
	Config   config.ModelConfig
	ID       string
	Path     string
	loadedAt *time.Time
	status   ModelStatus
	err      error
	backend  backend.Backend

	// mu is held shared for the duration of every Infer and exclusively by lifecycle
	// changes, so a model is never closed under a running forward pass.
	mu      sync.RWMutex
	inferMu *sync.Mutex
}

// NewModelInstance creates a new model instance.
func NewModelInstance(cfg config.ModelConfig, id, path string) *ModelInstance {
	return &ModelInstance{
		ID:     id,
		Path:   path,
		Config: cfg,
		status: ModelStatusUnloaded,
	}
}

// SetStatus sets the status of the model instance.
func (mi *ModelInstance) SetStatus(status ModelStatus) {
	mi.mu.Lock()
	defer mi.mu.Unlock()

	mi.setStatusLocked(status)
}

func (mi *ModelInstance) setStatusLocked(status ModelStatus) {
	mi.status = status
	if status == ModelStatusLoaded {
		now := time.Now()
		mi.loadedAt = &now
	}
}

// Status returns the current status.
func (mi *ModelInstance) Status() ModelStatus {
	mi.mu.RLock()
	defer mi.mu.RUnlock()

	return mi.status
}

// SampleRate is the rate the model requires, or zero when it accepts any rate.
func (mi *ModelInstance) SampleRate() int {
	return mi.Config.SampleRate
}

// Attach marks the instance loaded with b serving it.
func (mi *ModelInstance) Attach(b backend.Backend) {
	mi.mu.Lock()
	defer mi.mu.Unlock()

	mi.backend = b
	mi.err = nil
	mi.inferMu = nil
	if mi.Config.SerializeInference || !backend.IsConcurrentSafe(b) {
		mi.inferMu = &sync.Mutex{}
	}
	mi.setStatusLocked(ModelStatusLoaded)
}

// Fail marks the instance failed with err.
func (mi *ModelInstance) Fail(err error) {
	mi.mu.Lock()
	defer mi.mu.Unlock()

	mi.backend = nil
	mi.err = err
	mi.setStatusLocked(ModelStatusFailed)
}

// Available returns nil when the model can serve requests.
func (mi *ModelInstance) Available() error {
	mi.mu.RLock()
	defer mi.mu.RUnlock()

	return mi.availableLocked()
}

func (mi *ModelInstance) availableLocked() error {
	if mi.status == ModelStatusLoaded && mi.backend != nil {
		return nil
	}
	if mi.err != nil {
		return fmt.Errorf("%w: %s is %s: %w", ErrUnavailable, mi.ID, mi.status, mi.err)
	}
	return fmt.Errorf("%w: %s is %s", ErrUnavailable, mi.ID, mi.status)
}

// InputSpec returns the loaded model's input contract.
func (mi *ModelInstance) InputSpec() (tensor.InputSpec, error) {
	mi.mu.RLock()
	defer mi.mu.RUnlock()

	if err := mi.availableLocked(); err != nil {
		return tensor.InputSpec{}, err
	}
	return mi.backend.InputSpec(), nil
}

// Infer validates input against the model's input contract and runs one forward pass.
// Contract violations are tensor.ErrShape or tensor.ErrDType errors and never reach the
// backend.
func (mi *ModelInstance) Infer(ctx context.Context, input *tensor.Tensor) (*tensor.Tensor, error) {
	mi.mu.RLock()
	defer mi.mu.RUnlock()

	if err := mi.availableLocked(); err != nil {
		return nil, err
	}
	if err := mi.backend.InputSpec().Check(input); err != nil {
		return nil, err
	}

	if mi.inferMu != nil {
		mi.inferMu.Lock()
		defer mi.inferMu.Unlock()
	}

	return mi.backend.Infer(ctx, input)
}

// Info returns a snapshot of the instance.
func (mi *ModelInstance) Info() ModelInfo {
	mi.mu.RLock()
	defer mi.mu.RUnlock()

	info := ModelInfo{
		ID:         mi.ID,
		Path:       mi.Path,
		Backend:    mi.Config.Backend,
		Status:     mi.status,
		SampleRate: mi.Config.SampleRate,
		LoadedAt:   mi.loadedAt,
	}
	if mi.err != nil {
		info.Error = mi.err.Error()
	}
	return info
}

// Close unloads the model, waiting for in-flight inference to finish.
func (mi *ModelInstance) Close() error {
	mi.mu.Lock()
	defer mi.mu.Unlock()

	if mi.backend == nil {
		return nil
	}

	mi.setStatusLocked(ModelStatusUnloading)
	err := mi.backend.Close()
	mi.backend = nil
	mi.setStatusLocked(ModelStatusUnloaded)

	if err != nil {
		return fmt.Errorf("failed to close model %s: %w", mi.ID, err)
	}
	return nil
}
