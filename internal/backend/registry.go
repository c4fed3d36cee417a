package backend

import (
	"fmt"
	"slices"
	"sync"
)

// Registry maps backend providers to the loaders that open models for them.
type Registry struct {
	loaders map[BackendProvider]Loader
	mu      sync.RWMutex
}

// NewRegistry creates a new backend registry.
func NewRegistry() *Registry {
	return &Registry{
		loaders: make(map[BackendProvider]Loader),
	}
}

// Register adds a loader for provider.
func (r *Registry) Register(provider BackendProvider, loader Loader) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.loaders[provider]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, provider)
	}
	r.loaders[provider] = loader

	return nil
}

// Get retrieves the loader for provider.
func (r *Registry) Get(provider BackendProvider) (Loader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.loaders[provider]
	return l, ok
}

// Providers lists the registered providers in sorted order.
func (r *Registry) Providers() []BackendProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]BackendProvider, 0, len(r.loaders))
	for p := range r.loaders {
		providers = append(providers, p)
	}
	slices.Sort(providers)

	return providers
}
