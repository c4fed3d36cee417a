package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ekisa-team/quietwave/internal/audio"
	"github.com/ekisa-team/quietwave/internal/ffmpeg"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// stereoWAV encodes interleaved 16-bit frames as a two-channel WAV.
func stereoWAV(t *testing.T, rate int, frames ...[2]int) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "stereo.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	data := make([]int, 0, 2*len(frames))
	for _, fr := range frames {
		data = append(data, fr[0], fr[1])
	}

	enc := wav.NewEncoder(f, rate, 16, 2, 1)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	return out
}

func TestFormatNormalizer_Normalize(t *testing.T) {
	tr := new(MockTranscoder)
	tr.On("ToWAV", mock.Anything, upload).
		Return(stereoWAV(t, 22050, [2]int{16384, 0}, [2]int{-16384, -16384}, [2]int{8192, -8192}), nil).Once()

	w, err := NewFormatNormalizer(tr).Normalize(context.Background(), upload)
	require.NoError(t, err)

	assert.Equal(t, 22050, w.SampleRate)
	require.Equal(t, 3, w.Len())
	assert.InDelta(t, 0.25, w.Samples[0], 1e-6)
	assert.InDelta(t, -0.5, w.Samples[1], 1e-6)
	assert.InDelta(t, 0.0, w.Samples[2], 1e-6)
	tr.AssertExpectations(t)
}

func TestFormatNormalizer_Idempotent(t *testing.T) {
	wavBytes := stereoWAV(t, 16000, [2]int{100, 200}, [2]int{-300, 301})
	tr := new(MockTranscoder)
	tr.On("ToWAV", mock.Anything, upload).Return(wavBytes, nil).Twice()

	n := NewFormatNormalizer(tr)
	a, err := n.Normalize(context.Background(), upload)
	require.NoError(t, err)
	b, err := n.Normalize(context.Background(), upload)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestFormatNormalizer_Errors(t *testing.T) {
	tr := new(MockTranscoder)
	tr.On("ToWAV", mock.Anything, []byte("missing")).Return(nil, ffmpeg.ErrUnavailable)
	tr.On("ToWAV", mock.Anything, []byte("garbage")).Return([]byte("RIFF but not really"), nil)

	n := NewFormatNormalizer(tr)

	_, err := n.Normalize(context.Background(), []byte("missing"))
	assert.ErrorIs(t, err, ffmpeg.ErrUnavailable)

	_, err = n.Normalize(context.Background(), []byte("garbage"))
	assert.ErrorIs(t, err, audio.ErrMalformed)
}
