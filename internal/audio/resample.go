package audio

import (
	"fmt"
	"math"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resample converts w to the target sample rate. The result has exactly
// round(w.Len() * rate / w.SampleRate) samples: the filter tail is flushed, then the output is
// trimmed, or zero-padded if the resampler still comes up short.
// Resampling to the current rate returns a copy.
func Resample(w *Waveform, rate int) (*Waveform, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("%w: target %d", ErrSampleRate, rate)
	}
	if w.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: source %d", ErrSampleRate, w.SampleRate)
	}

	if rate == w.SampleRate {
		out := make([]float32, len(w.Samples))
		copy(out, w.Samples)
		return &Waveform{Samples: out, SampleRate: rate}, nil
	}

	want := ResampledLen(w.Len(), w.SampleRate, rate)
	if w.Len() == 0 {
		return &Waveform{Samples: []float32{}, SampleRate: rate}, nil
	}

	r, err := resampling.New(&resampling.Config{
		InputRate:  float64(w.SampleRate),
		OutputRate: float64(rate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	in := make([]float64, len(w.Samples))
	for i, s := range w.Samples {
		in[i] = float64(s)
	}

	resampled, err := r.Process(in)
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}
	tail, err := r.Flush()
	if err != nil {
		return nil, fmt.Errorf("resample flush error: %w", err)
	}
	resampled = append(resampled, tail...)

	out := make([]float32, want)
	for i := 0; i < want && i < len(resampled); i++ {
		out[i] = float32(resampled[i])
	}

	return &Waveform{Samples: out, SampleRate: rate}, nil
}

// ResampledLen is the number of samples n input samples occupy at the target rate.
func ResampledLen(n, from, to int) int {
	return int(math.Round(float64(n) * float64(to) / float64(from)))
}
