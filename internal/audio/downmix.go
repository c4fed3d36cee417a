package audio

import "fmt"

// Multichannel is interleaved PCM as decoded from a container, before downmixing.
type Multichannel struct {
	// Samples are interleaved frame by frame: L0 R0 L1 R1 ...
	Samples    []float32
	Channels   int
	SampleRate int
}

// Frames returns the number of complete frames.
func (m *Multichannel) Frames() int {
	if m.Channels <= 0 {
		return 0
	}
	return len(m.Samples) / m.Channels
}

// Downmix reduces m to mono by averaging the channels of every frame.
// A trailing incomplete frame is dropped. Mono input is copied unchanged.
func Downmix(m *Multichannel) (*Waveform, error) {
	if m.Channels <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrNoChannels, m.Channels)
	}
	if m.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrSampleRate, m.SampleRate)
	}

	frames := m.Frames()
	out := make([]float32, frames)

	if m.Channels == 1 {
		copy(out, m.Samples[:frames])
		return &Waveform{Samples: out, SampleRate: m.SampleRate}, nil
	}

	scale := 1 / float64(m.Channels)
	for f := range frames {
		var sum float64
		base := f * m.Channels
		for c := range m.Channels {
			sum += float64(m.Samples[base+c])
		}
		out[f] = float32(sum * scale)
	}

	return &Waveform{Samples: out, SampleRate: m.SampleRate}, nil
}
