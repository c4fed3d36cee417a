package service

import (
	"context"
	"time"

	"github.com/ekisa-team/quietwave/internal/audio"
	"github.com/ekisa-team/quietwave/internal/tensor"
	"github.com/stretchr/testify/mock"
)

// --- Mock types ---

type MockNormalizer struct {
	mock.Mock
}

func (m *MockNormalizer) Normalize(ctx context.Context, raw []byte) (*audio.Waveform, error) {
	args := m.Called(ctx, raw)
	if w, ok := args.Get(0).(*audio.Waveform); ok {
		return w, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockTranscoder struct {
	mock.Mock
}

func (m *MockTranscoder) ToWAV(ctx context.Context, src []byte) ([]byte, error) {
	args := m.Called(ctx, src)
	out, _ := args.Get(0).([]byte)
	return out, args.Error(1)
}

type MockModel struct {
	mock.Mock
	rate int
}

func (m *MockModel) SampleRate() int {
	return m.rate
}

func (m *MockModel) Infer(ctx context.Context, input *tensor.Tensor) (*tensor.Tensor, error) {
	args := m.Called(ctx, input)
	if t, ok := args.Get(0).(*tensor.Tensor); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockModels struct {
	mock.Mock
}

func (m *MockModels) Resolve(id string) (string, Model, error) {
	args := m.Called(id)
	model, _ := args.Get(1).(Model)
	return args.String(0), model, args.Error(2)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) ObserveRequest(model, outcome string) {
	m.Called(model, outcome)
}

func (m *MockRecorder) ObserveStage(stage string, d time.Duration) {
	m.Called(stage, d)
}

func (m *MockRecorder) ObserveUpload(n int) {
	m.Called(n)
}
