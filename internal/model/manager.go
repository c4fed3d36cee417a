package model

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ekisa-team/quietwave/internal/backend"
	"github.com/ekisa-team/quietwave/internal/config"
	"github.com/ekisa-team/quietwave/internal/xfs"
	"github.com/hashicorp/go-multierror"
)

// Manager orchestrates model lifecycle.
type Manager struct {
	backends  *backend.Registry
	registry  *Registry
	defaultID string
	mu        sync.RWMutex
}

// NewManager creates a new Manager that opens models through backends.
func NewManager(backends *backend.Registry) *Manager {
	return &Manager{
		backends: backends,
		registry: NewRegistry(),
	}
}

// Registry returns the model registry.
func (m *Manager) Registry() *Registry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.registry
}

// DefaultModelID returns the id used when a request names no model.
func (m *Manager) DefaultModelID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.defaultID
}

// LoadModelsFromConfig loads every configured model into a fresh registry and swaps it in.
// A model that fails to load is kept in the registry as failed and logged once; it never
// aborts the load of the others. Models of the previous registry are closed after the swap.
func (m *Manager) LoadModelsFromConfig(ctx context.Context, cfg *config.Config) error {
	instances := make([]*ModelInstance, 0, len(cfg.Models))

	for id, modelConfig := range cfg.Models {
		if err := ctx.Err(); err != nil {
			closeAll(NewRegistry(instances...))
			return err
		}

		instance := NewModelInstance(modelConfig, id, xfs.ExpandTilde(modelConfig.Path))
		instances = append(instances, instance)
		m.load(ctx, instance)
	}

	registry := NewRegistry(instances...)

	m.mu.Lock()
	previous := m.registry
	m.registry = registry
	m.defaultID = cfg.DefaultModel
	m.mu.Unlock()

	if previous != nil {
		// Closing waits for in-flight inference on the old models.
		go func() {
			if err := closeAll(previous); err != nil {
				slog.Error("Failed to close replaced models", "error", err)
			}
		}()
	}

	return nil
}

// load opens instance through its backend and records the outcome on it.
func (m *Manager) load(ctx context.Context, instance *ModelInstance) {
	instance.SetStatus(ModelStatusLoading)
	start := time.Now()

	provider := backend.BackendProvider(instance.Config.Backend)
	loader, ok := m.backends.Get(provider)
	if !ok {
		err := fmt.Errorf("%w: %s", backend.ErrNotFound, provider)
		instance.Fail(err)
		slog.Error("Failed to load model", "model_id", instance.ID, "backend", provider, "error", err)
		return
	}

	b, err := loader(ctx, instance.Path, instance.Config.Options)
	if err != nil {
		instance.Fail(err)
		slog.Error("Failed to load model", "model_id", instance.ID, "path", instance.Path, "error", err)
		return
	}

	instance.Attach(b)
	slog.Info("Model loaded", "model_id", instance.ID, "path", instance.Path,
		"backend", provider, "duration", time.Since(start))
}

// Model returns the instance with id, or the default model when id is empty. It fails with
// ErrNotFound for an unknown id and ErrUnavailable when the model is not loaded.
func (m *Manager) Model(id string) (*ModelInstance, error) {
	m.mu.RLock()
	registry, defaultID := m.registry, m.defaultID
	m.mu.RUnlock()

	if id == "" {
		id = defaultID
	}

	instance, ok := registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err := instance.Available(); err != nil {
		return nil, err
	}
	return instance, nil
}

// List returns a snapshot of every model.
func (m *Manager) List() []ModelInfo {
	instances := m.Registry().List()

	infos := make([]ModelInfo, 0, len(instances))
	for _, instance := range instances {
		infos = append(infos, instance.Info())
	}
	return infos
}

// Close unloads every model.
func (m *Manager) Close() error {
	m.mu.Lock()
	registry := m.registry
	m.registry = NewRegistry()
	m.mu.Unlock()

	return closeAll(registry)
}

func closeAll(registry *Registry) error {
	var result *multierror.Error
	for _, instance := range registry.List() {
		if err := instance.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
