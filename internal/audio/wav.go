package audio

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE

	// OutputBitDepth is the PCM depth of every WAV produced by EncodeWAV.
	OutputBitDepth = 16
)

// DecodeWAV parses an integer PCM WAV container into interleaved float samples in [-1, 1).
// The sample rate and channel count declared by the container are preserved.
func DecodeWAV(data []byte) (*Multichannel, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		if err := d.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		return nil, ErrMalformed
	}

	if d.WavAudioFormat != wavFormatPCM && d.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("%w: format tag %#x", ErrUnsupported, d.WavAudioFormat)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	channels := int(d.NumChans)
	if channels <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrNoChannels, channels)
	}

	bitDepth := int(d.BitDepth)
	if bitDepth == 0 {
		bitDepth = buf.SourceBitDepth
	}

	samples, err := intToFloat(buf.Data, bitDepth)
	if err != nil {
		return nil, err
	}

	return &Multichannel{
		Samples:    samples,
		Channels:   channels,
		SampleRate: int(d.SampleRate),
	}, nil
}

// intToFloat scales integer PCM into [-1, 1). 8-bit WAV samples are unsigned.
func intToFloat(data []int, bitDepth int) ([]float32, error) {
	out := make([]float32, len(data))

	switch bitDepth {
	case 8:
		for i, v := range data {
			out[i] = float32(v-128) / 128
		}
	case 16, 24, 32:
		scale := float64(int64(1) << (bitDepth - 1))
		for i, v := range data {
			out[i] = float32(float64(v) / scale)
		}
	default:
		return nil, fmt.Errorf("%w: %d-bit samples", ErrUnsupported, bitDepth)
	}

	return out, nil
}

// EncodeWAV serializes w as a mono 16-bit PCM WAV whose declared sample rate is w.SampleRate
// and whose frame count is w.Len(). Samples outside [-1, 1] are clipped by quantization.
func EncodeWAV(w *Waveform) ([]byte, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if w.Len() == 0 {
		return nil, ErrEmpty
	}

	// The encoder patches chunk sizes on Close, so it needs a seekable sink.
	f, err := os.CreateTemp("", "quietwave-*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	enc := wav.NewEncoder(f, w.SampleRate, OutputBitDepth, 1, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: w.SampleRate},
		Data:           quantize16(w.Samples),
		SourceBitDepth: OutputBitDepth,
	}

	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to write samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize wav: %w", err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind output file: %w", err)
	}

	return io.ReadAll(f)
}

func quantize16(samples []float32) []int {
	out := make([]int, len(samples))
	for i, s := range samples {
		v := math.Round(float64(s) * 32768)
		out[i] = int(max(math.MinInt16, min(math.MaxInt16, v)))
	}
	return out
}
