package onnx

import (
	"context"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ekisa-team/quietwave/internal/backend"
	"github.com/ekisa-team/quietwave/internal/envvar"
	"github.com/ekisa-team/quietwave/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ort "github.com/yalue/onnxruntime_go"
)

func TestDtypeOf(t *testing.T) {
	assert.Equal(t, tensor.Float32, dtypeOf(ort.TensorElementDataTypeFloat))
	assert.Equal(t, tensor.DType("float64"), dtypeOf(ort.TensorElementDataTypeDouble))
	assert.Equal(t, tensor.DType("int64"), dtypeOf(ort.TensorElementDataTypeInt64))
	assert.NotEqual(t, tensor.Float32, dtypeOf(ort.TensorElementDataTypeUint8))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "absent.onnx"), SessionConfig{})

	assert.ErrorIs(t, err, backend.ErrLoad)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoad_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, "model.onnx", SessionConfig{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSessionConfigFrom(t *testing.T) {
	assert.Equal(t, SessionConfig{}, SessionConfigFrom(nil))
	assert.Equal(t, SessionConfig{IntraOpThreads: 2, InterOpThreads: 1},
		SessionConfigFrom(map[string]any{"intra_op_threads": 2, "inter_op_threads": 1.0, "unknown": true}))
	assert.Equal(t, SessionConfig{}, SessionConfigFrom(map[string]any{"intra_op_threads": -3}))
}

func TestSessionOptions_Defaults(t *testing.T) {
	opts, err := sessionOptions(SessionConfig{})
	require.NoError(t, err)
	assert.Nil(t, opts)
}

func TestInitializeEnvironment_MissingLibrary(t *testing.T) {
	if ort.IsInitialized() {
		t.Skip("runtime already initialized by another test")
	}

	err := InitializeEnvironment(filepath.Join(t.TempDir(), "libonnxruntime.so"))
	assert.ErrorIs(t, err, ErrSharedLibrary)
}

func TestNewLoader_MissingLibrary(t *testing.T) {
	if ort.IsInitialized() {
		t.Skip("runtime already initialized by another test")
	}

	loader := NewLoader(filepath.Join(t.TempDir(), "libonnxruntime.so"))
	_, err := loader(context.Background(), "model.onnx", nil)

	assert.ErrorIs(t, err, backend.ErrLoad)
	assert.ErrorIs(t, err, ErrSharedLibrary)
}

func TestBackend_CloseIdempotent(t *testing.T) {
	b := &Backend{}
	assert.NoError(t, b.Close())
	assert.NoError(t, b.Close())
}

// TestBackend_Integration runs a real model when both the runtime library and a
// single-input float32 model are available, e.g.
//
//	QUIETWAVE_ONNXRUNTIME_LIB=/usr/lib/libonnxruntime.so QUIETWAVE_MODEL_PATH=denoiser_tcn.onnx go test ./...
func TestBackend_Integration(t *testing.T) {
	lib := os.Getenv(envvar.QuietwaveONNXRuntimeLib)
	modelPath := os.Getenv(envvar.QuietwaveModelPath)
	if lib == "" || modelPath == "" {
		t.Skip("set QUIETWAVE_ONNXRUNTIME_LIB and QUIETWAVE_MODEL_PATH to run")
	}

	b, err := NewLoader(lib)(context.Background(), modelPath, map[string]any{"intra_op_threads": 1})
	require.NoError(t, err)
	defer b.Close()

	spec := b.InputSpec()
	assert.Equal(t, tensor.Float32, spec.DType)
	assert.Equal(t, 2, spec.Rank)

	const n = 16000
	data := make([]float32, n)
	for i := range data {
		data[i] = float32(0.3 * math.Sin(2*math.Pi*440*float64(i)/16000))
	}

	out, err := b.Infer(context.Background(), &tensor.Tensor{Shape: []int64{1, n}, DType: tensor.Float32, Data: data})
	require.NoError(t, err)

	samples, err := tensor.FromModelOutput(out)
	require.NoError(t, err)
	assert.NotEmpty(t, samples)
}
