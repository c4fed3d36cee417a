package service

import (
	"context"

	"github.com/ekisa-team/quietwave/internal/model"
	"github.com/ekisa-team/quietwave/internal/tensor"
)

// Model is a loaded model as seen by the pipeline.
type Model interface {
	// SampleRate is the rate the model requires, or zero when it accepts any rate.
	SampleRate() int

	Infer(ctx context.Context, input *tensor.Tensor) (*tensor.Tensor, error)
}

// Models resolves a requested model id to a serving model. An empty id selects the default
// model; the resolved id is returned alongside.
type Models interface {
	Resolve(id string) (string, Model, error)
}

type managerModels struct {
	manager *model.Manager
}

// ModelsFromManager adapts a model.Manager to Models.
func ModelsFromManager(manager *model.Manager) Models {
	return managerModels{manager: manager}
}

// Resolve implements Models.
func (m managerModels) Resolve(id string) (string, Model, error) {
	if id == "" {
		id = m.manager.DefaultModelID()
	}

	instance, err := m.manager.Model(id)
	if err != nil {
		return id, nil, err
	}
	return id, instance, nil
}
