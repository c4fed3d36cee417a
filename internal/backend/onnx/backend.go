// Package onnx implements backend.Backend on top of ONNX Runtime.
package onnx

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"

	"github.com/ekisa-team/quietwave/internal/backend"
	"github.com/ekisa-team/quietwave/internal/mapsafe"
	"github.com/ekisa-team/quietwave/internal/tensor"
	"github.com/ekisa-team/quietwave/internal/xfs"
	ort "github.com/yalue/onnxruntime_go"
)

// Backend runs a single-input, single-output ONNX graph.
type Backend struct {
	session *ort.DynamicAdvancedSession
	input   tensor.InputSpec
	output  string
	path    string
}

var (
	_ backend.Backend        = (*Backend)(nil)
	_ backend.ConcurrentSafe = (*Backend)(nil)
)

const (
	optionIntraOpThreads = "intra_op_threads"
	optionInterOpThreads = "inter_op_threads"
)

// SessionConfig tunes the ONNX Runtime session. Zero values keep the runtime defaults.
type SessionConfig struct {
	IntraOpThreads int
	InterOpThreads int
}

// SessionConfigFrom reads a SessionConfig from a model's backend options.
func SessionConfigFrom(options map[string]any) SessionConfig {
	for _, k := range mapsafe.Unknown(options, optionIntraOpThreads, optionInterOpThreads) {
		slog.Warn("Ignoring unknown onnxruntime option", "option", k)
	}
	return SessionConfig{
		IntraOpThreads: max(mapsafe.Get(options, optionIntraOpThreads, 0), 0),
		InterOpThreads: max(mapsafe.Get(options, optionInterOpThreads, 0), 0),
	}
}

// NewLoader returns a backend.Loader that initializes the runtime from libPath before
// opening each model.
func NewLoader(libPath string) backend.Loader {
	return func(ctx context.Context, path string, options map[string]any) (backend.Backend, error) {
		if err := InitializeEnvironment(libPath); err != nil {
			return nil, fmt.Errorf("%w: %w", backend.ErrLoad, err)
		}
		return Load(ctx, path, SessionConfigFrom(options))
	}
}

// Load opens the model at path. The runtime environment must already be initialized.
func Load(ctx context.Context, path string, sc SessionConfig) (*Backend, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !xfs.Exists(path) {
		return nil, fmt.Errorf("%w: %s: %w", backend.ErrLoad, path, fs.ErrNotExist)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read graph metadata: %w", backend.ErrLoad, err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("%w: graph has %d inputs and %d outputs", backend.ErrLoad, len(inputs), len(outputs))
	}
	if len(inputs) > 1 || len(outputs) > 1 {
		slog.Warn("Model has extra inputs or outputs, only the first of each is used",
			"path", path, "inputs", len(inputs), "outputs", len(outputs))
	}

	in := inputs[0]
	if in.OrtValueType != ort.ONNXTypeTensor {
		return nil, fmt.Errorf("%w: input %q is not a tensor", backend.ErrLoad, in.Name)
	}

	opts, err := sessionOptions(sc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", backend.ErrLoad, err)
	}
	if opts != nil {
		defer opts.Destroy()
	}

	session, err := ort.NewDynamicAdvancedSession(path, []string{in.Name}, []string{outputs[0].Name}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create session: %w", backend.ErrLoad, err)
	}

	b := &Backend{
		session: session,
		input: tensor.InputSpec{
			Name:  in.Name,
			DType: dtypeOf(in.DataType),
			Rank:  len(in.Dimensions),
		},
		output: outputs[0].Name,
		path:   path,
	}

	slog.Debug("ONNX model opened", "path", path, "input", b.input.Name, "dims", in.Dimensions,
		"dtype", b.input.DType, "output", b.output)

	return b, nil
}

// sessionOptions returns nil when sc keeps every runtime default.
func sessionOptions(sc SessionConfig) (*ort.SessionOptions, error) {
	if sc == (SessionConfig{}) {
		return nil, nil
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	if sc.IntraOpThreads > 0 {
		if err := opts.SetIntraOpNumThreads(sc.IntraOpThreads); err != nil {
			opts.Destroy()
			return nil, fmt.Errorf("failed to set intra-op threads: %w", err)
		}
	}
	if sc.InterOpThreads > 0 {
		if err := opts.SetInterOpNumThreads(sc.InterOpThreads); err != nil {
			opts.Destroy()
			return nil, fmt.Errorf("failed to set inter-op threads: %w", err)
		}
	}
	return opts, nil
}

// Provider returns the backend provider.
func (b *Backend) Provider() backend.BackendProvider {
	return backend.BackendProviderONNXRuntime
}

// InputSpec describes the model's audio input.
func (b *Backend) InputSpec() tensor.InputSpec {
	return b.input
}

// ConcurrentSafe reports true: ONNX Runtime sessions allow concurrent Run calls.
func (b *Backend) ConcurrentSafe() bool {
	return true
}

// Infer runs the graph on input and returns a copy of its first output.
func (b *Backend) Infer(ctx context.Context, input *tensor.Tensor) (*tensor.Tensor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if input.DType != tensor.Float32 {
		return nil, fmt.Errorf("%w: runtime accepts float32, got %s", tensor.ErrDType, input.DType)
	}

	in, err := ort.NewTensor(ort.NewShape(input.Shape...), input.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create input tensor: %w", backend.ErrInference, err)
	}
	defer in.Destroy()

	// A nil output lets the runtime allocate it with whatever shape the graph produces.
	outputs := []ort.Value{nil}
	if err := b.session.Run([]ort.Value{in}, outputs); err != nil {
		return nil, fmt.Errorf("%w: %w", backend.ErrInference, err)
	}
	defer func() {
		if outputs[0] != nil {
			outputs[0].Destroy()
		}
	}()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("%w: output %q is %T, want a float32 tensor", tensor.ErrDType, b.output, outputs[0])
	}

	return &tensor.Tensor{
		Shape: slices.Clone([]int64(out.GetShape())),
		DType: tensor.Float32,
		Data:  slices.Clone(out.GetData()),
	}, nil
}

// Close destroys the session.
func (b *Backend) Close() error {
	if b.session == nil {
		return nil
	}
	err := b.session.Destroy()
	b.session = nil
	return err
}

// dtypeOf maps runtime element types onto tensor.DType. Only float32 is fed by this
// service; other types keep a descriptive name so InputSpec.Check can reject them.
func dtypeOf(t ort.TensorElementDataType) tensor.DType {
	switch t {
	case ort.TensorElementDataTypeFloat:
		return tensor.Float32
	case ort.TensorElementDataTypeDouble:
		return "float64"
	case ort.TensorElementDataTypeFloat16:
		return "float16"
	case ort.TensorElementDataTypeInt16:
		return "int16"
	case ort.TensorElementDataTypeInt32:
		return "int32"
	case ort.TensorElementDataTypeInt64:
		return "int64"
	default:
		return tensor.DType(fmt.Sprintf("onnx(%d)", int(t)))
	}
}
