// Package tensor adapts waveforms to and from the dense arrays exchanged with inference backends.
package tensor

import (
	"fmt"
	"slices"

	"github.com/ekisa-team/quietwave/internal/audio"
)

// DType is the element type of a tensor.
type DType string

const (
	// Float32 is a 32-bit IEEE-754 element.
	Float32 DType = "float32"
)

// Tensor is a dense, row-major array. Only float32 payloads are carried.
type Tensor struct {
	Shape []int64
	DType DType
	Data  []float32
}

// Rank returns the number of axes.
func (t *Tensor) Rank() int {
	return len(t.Shape)
}

// Elements returns the product of the shape's dimensions.
func (t *Tensor) Elements() int64 {
	n := int64(1)
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Validate checks that the payload length agrees with the shape.
func (t *Tensor) Validate() error {
	for i, d := range t.Shape {
		if d < 0 {
			return fmt.Errorf("%w: axis %d has negative size %d", ErrShape, i, d)
		}
	}
	if n := t.Elements(); n != int64(len(t.Data)) {
		return fmt.Errorf("%w: shape %v holds %d elements, data has %d", ErrShape, t.Shape, n, len(t.Data))
	}
	return nil
}

// String formats the tensor header for logs.
func (t *Tensor) String() string {
	return fmt.Sprintf("%s%v", t.DType, t.Shape)
}

// ToModelInput adds a single leading batch axis to w, producing a (1, L) float32 tensor.
// The model takes rank 2; no channel axis is added.
func ToModelInput(w *audio.Waveform) (*Tensor, error) {
	if w.Len() == 0 {
		return nil, fmt.Errorf("%w: waveform is empty", ErrShape)
	}
	if i := audio.FirstNonFinite(w.Samples); i >= 0 {
		return nil, fmt.Errorf("%w: sample %d is %v", audio.ErrNonFinite, i, w.Samples[i])
	}

	data := make([]float32, w.Len())
	copy(data, w.Samples)

	return &Tensor{
		Shape: []int64{1, int64(w.Len())},
		DType: Float32,
		Data:  data,
	}, nil
}

// FromModelOutput squeezes every size-1 axis of t and returns the remaining 1-D sequence.
// More than one non-unit axis, or an empty tensor, violates the shape contract.
func FromModelOutput(t *Tensor) ([]float32, error) {
	if t.DType != Float32 {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrDType, t.DType, Float32)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if len(t.Data) == 0 {
		return nil, fmt.Errorf("%w: output %v is empty", ErrShape, t.Shape)
	}

	squeezed := Squeeze(t.Shape)
	if len(squeezed) > 1 {
		return nil, fmt.Errorf("%w: output %v squeezes to %v, want a single axis", ErrShape, t.Shape, squeezed)
	}

	out := make([]float32, len(t.Data))
	copy(out, t.Data)
	return out, nil
}

// Squeeze returns shape without its size-1 axes.
func Squeeze(shape []int64) []int64 {
	return slices.DeleteFunc(slices.Clone(shape), func(d int64) bool { return d == 1 })
}
