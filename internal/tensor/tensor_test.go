package tensor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/quietwave/internal/audio"
)

func TestToModelInput_Shape(t *testing.T) {
	for _, n := range []int{1, 2, 160, 16000} {
		w := &audio.Waveform{Samples: make([]float32, n), SampleRate: 16000}

		in, err := ToModelInput(w)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, int64(n)}, in.Shape)
		assert.Equal(t, Float32, in.DType)
		assert.Equal(t, 2, in.Rank())
		assert.Len(t, in.Data, n)
	}
}

func TestToModelInput_CopiesSamples(t *testing.T) {
	w := &audio.Waveform{Samples: []float32{0.25, -0.5}, SampleRate: 8000}

	in, err := ToModelInput(w)
	require.NoError(t, err)
	in.Data[0] = 1
	assert.Equal(t, float32(0.25), w.Samples[0])
}

func TestToModelInput_Empty(t *testing.T) {
	_, err := ToModelInput(&audio.Waveform{SampleRate: 16000})
	assert.ErrorIs(t, err, ErrShape)
}

func TestToModelInput_NonFinite(t *testing.T) {
	w := &audio.Waveform{Samples: []float32{0, float32(math.NaN())}, SampleRate: 16000}

	_, err := ToModelInput(w)
	assert.ErrorIs(t, err, audio.ErrNonFinite)
}

func TestFromModelOutput_Squeeze(t *testing.T) {
	data := []float32{1, 2, 3, 4}
	shapes := [][]int64{
		{4},
		{1, 4},
		{1, 1, 4},
		{4, 1},
		{1, 4, 1, 1},
	}

	for _, shape := range shapes {
		out, err := FromModelOutput(&Tensor{Shape: shape, DType: Float32, Data: data})
		require.NoError(t, err, "shape=%v", shape)
		assert.Equal(t, data, out)
	}
}

func TestFromModelOutput_SingleElement(t *testing.T) {
	out, err := FromModelOutput(&Tensor{Shape: []int64{1, 1, 1}, DType: Float32, Data: []float32{0.5}})
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5}, out)
}

func TestFromModelOutput_Violations(t *testing.T) {
	cases := map[string]*Tensor{
		"two non-unit axes": {Shape: []int64{1, 2, 3}, DType: Float32, Data: make([]float32, 6)},
		"empty":             {Shape: []int64{1, 0}, DType: Float32, Data: nil},
		"length mismatch":   {Shape: []int64{1, 5}, DType: Float32, Data: make([]float32, 4)},
	}

	for name, tc := range cases {
		_, err := FromModelOutput(tc)
		assert.ErrorIs(t, err, ErrShape, name)
	}

	_, err := FromModelOutput(&Tensor{Shape: []int64{2}, DType: "int64", Data: make([]float32, 2)})
	assert.ErrorIs(t, err, ErrDType)
}

func TestSqueeze(t *testing.T) {
	assert.Equal(t, []int64{5}, Squeeze([]int64{1, 1, 5}))
	assert.Equal(t, []int64{2, 3}, Squeeze([]int64{2, 1, 3}))
	assert.Empty(t, Squeeze([]int64{1, 1}))

	shape := []int64{1, 7}
	Squeeze(shape)
	assert.Equal(t, []int64{1, 7}, shape)
}

func TestInputSpec_Check(t *testing.T) {
	spec := InputSpec{Name: "noisy_wave", Rank: 2, DType: Float32}

	ok := &Tensor{Shape: []int64{1, 3}, DType: Float32, Data: make([]float32, 3)}
	assert.NoError(t, spec.Check(ok))

	rank3 := &Tensor{Shape: []int64{1, 1, 3}, DType: Float32, Data: make([]float32, 3)}
	err := spec.Check(rank3)
	assert.ErrorIs(t, err, ErrShape)
	assert.Contains(t, err.Error(), "expects rank 2")

	wrongType := &Tensor{Shape: []int64{1, 3}, DType: "float64", Data: make([]float32, 3)}
	assert.ErrorIs(t, spec.Check(wrongType), ErrDType)
}
