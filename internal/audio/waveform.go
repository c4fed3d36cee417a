// Package audio holds the canonical waveform representation used by the denoising
// pipeline together with its WAV codec, channel downmix and resampling steps.
//
// A [Waveform] is always mono. Multi-channel input is reduced by [Downmix], which averages
// every frame's channels arithmetically; the policy is fixed so that decoding the same bytes
// twice yields bit-identical samples.
package audio

import (
	"fmt"
	"math"
	"time"
)

// Waveform is a single-channel sequence of float samples at a given sample rate.
type Waveform struct {
	Samples    []float32
	SampleRate int
}

// Len returns the number of samples.
func (w *Waveform) Len() int {
	return len(w.Samples)
}

// Duration returns the playback length of the waveform.
func (w *Waveform) Duration() time.Duration {
	if w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(w.Samples)) * time.Second / time.Duration(w.SampleRate)
}

// Validate checks the sample rate and that every sample is finite.
func (w *Waveform) Validate() error {
	if w.SampleRate <= 0 {
		return fmt.Errorf("%w: got %d", ErrSampleRate, w.SampleRate)
	}
	if i := FirstNonFinite(w.Samples); i >= 0 {
		return fmt.Errorf("%w: sample %d is %v", ErrNonFinite, i, w.Samples[i])
	}
	return nil
}

// FirstNonFinite returns the index of the first NaN or Inf sample, or -1.
func FirstNonFinite(samples []float32) int {
	for i, s := range samples {
		f := float64(s)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return i
		}
	}
	return -1
}
