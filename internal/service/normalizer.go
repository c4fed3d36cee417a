package service

import (
	"context"

	"github.com/ekisa-team/quietwave/internal/audio"
)

// Transcoder converts arbitrary audio containers into WAV.
type Transcoder interface {
	ToWAV(ctx context.Context, src []byte) ([]byte, error)
}

// Normalizer turns raw upload bytes into a mono waveform at the source sample rate.
type Normalizer interface {
	Normalize(ctx context.Context, raw []byte) (*audio.Waveform, error)
}

// FormatNormalizer transcodes with ffmpeg, decodes the resulting WAV and downmixes it to mono.
type FormatNormalizer struct {
	transcoder Transcoder
}

// NewFormatNormalizer creates a normalizer that transcodes through transcoder.
func NewFormatNormalizer(transcoder Transcoder) *FormatNormalizer {
	return &FormatNormalizer{transcoder: transcoder}
}

// Normalize implements Normalizer. Transcoder errors are returned unchanged; WAV errors wrap
// the audio package's sentinels.
func (n *FormatNormalizer) Normalize(ctx context.Context, raw []byte) (*audio.Waveform, error) {
	wav, err := n.transcoder.ToWAV(ctx, raw)
	if err != nil {
		return nil, err
	}

	mc, err := audio.DecodeWAV(wav)
	if err != nil {
		return nil, err
	}

	return audio.Downmix(mc)
}
