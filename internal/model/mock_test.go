package model

import (
	"context"

	"github.com/ekisa-team/quietwave/internal/backend"
	"github.com/ekisa-team/quietwave/internal/tensor"
	"github.com/stretchr/testify/mock"
)

// --- Mock types ---

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Provider() backend.BackendProvider {
	return backend.BackendProviderONNXRuntime
}

func (m *MockBackend) InputSpec() tensor.InputSpec {
	args := m.Called()
	return args.Get(0).(tensor.InputSpec)
}

func (m *MockBackend) Infer(ctx context.Context, input *tensor.Tensor) (*tensor.Tensor, error) {
	args := m.Called(ctx, input)
	if out, ok := args.Get(0).(*tensor.Tensor); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBackend) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockConcurrentBackend struct {
	MockBackend
}

func (m *MockConcurrentBackend) ConcurrentSafe() bool {
	return true
}

var audioSpec = tensor.InputSpec{Name: "audio", DType: tensor.Float32, Rank: 2}

func input(n int) *tensor.Tensor {
	return &tensor.Tensor{Shape: []int64{1, int64(n)}, DType: tensor.Float32, Data: make([]float32, n)}
}
