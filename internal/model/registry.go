package model

import (
	"slices"
	"strings"
)

// Registry is the set of model instances built from one config snapshot. It never changes
// after construction; a reload builds a new Registry and swaps it in.
type Registry struct {
	byID    map[string]*ModelInstance
	ordered []*ModelInstance
}

// NewRegistry indexes instances by id. A later instance replaces an earlier one with the
// same id.
func NewRegistry(instances ...*ModelInstance) *Registry {
	r := &Registry{byID: make(map[string]*ModelInstance, len(instances))}
	for _, instance := range instances {
		r.byID[instance.ID] = instance
	}

	r.ordered = make([]*ModelInstance, 0, len(r.byID))
	for _, instance := range r.byID {
		r.ordered = append(r.ordered, instance)
	}
	slices.SortFunc(r.ordered, func(a, b *ModelInstance) int {
		return strings.Compare(a.ID, b.ID)
	})

	return r
}

// Get returns the instance with id.
func (r *Registry) Get(id string) (*ModelInstance, bool) {
	instance, ok := r.byID[id]
	return instance, ok
}

// List returns every instance ordered by id. Callers must not modify the slice.
func (r *Registry) List() []*ModelInstance {
	return r.ordered
}

// Len returns the number of instances.
func (r *Registry) Len() int {
	return len(r.ordered)
}
