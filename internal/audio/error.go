package audio

import "errors"

// Error definitions for the audio package.
var (
	ErrMalformed   = errors.New("audio data is not a valid PCM WAV stream")
	ErrSampleRate  = errors.New("sample rate must be positive")
	ErrNonFinite   = errors.New("waveform contains non-finite samples")
	ErrEmpty       = errors.New("waveform has no samples")
	ErrNoChannels  = errors.New("audio has no channels")
	ErrUnsupported = errors.New("unsupported WAV encoding")
)
