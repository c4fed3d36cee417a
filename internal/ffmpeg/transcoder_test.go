package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// writeOutput emulates ffmpeg by writing to the output path, the last argument.
func writeOutput(data []byte) func(mock.Arguments) {
	return func(args mock.Arguments) {
		argv := args.Get(2).([]string)
		if err := os.WriteFile(argv[len(argv)-1], data, 0o600); err != nil {
			panic(err)
		}
	}
}

func TestTranscoder_ToWAV(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Run", mock.Anything, "ffmpeg", mock.Anything, nil).
		Run(func(args mock.Arguments) {
			argv := args.Get(2).([]string)
			in := argv[indexOf(argv, "-i")+1]

			staged, err := os.ReadFile(in)
			require.NoError(t, err)
			assert.Equal(t, []byte("webm-bytes"), staged)

			writeOutput([]byte("RIFF....WAVE"))(args)
		}).
		Return([]byte(nil), []byte(nil), nil).Once()

	tr := NewTranscoder(NewExecutorWithRunner("ffmpeg", time.Second, runner))
	out, err := tr.ToWAV(context.Background(), []byte("webm-bytes"))

	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF....WAVE"), out)
	runner.AssertExpectations(t)
}

func TestTranscoder_ToWAVCleansUp(t *testing.T) {
	var dir string
	runner := new(MockRunner)
	runner.On("Run", mock.Anything, "ffmpeg", mock.Anything, nil).
		Run(func(args mock.Arguments) {
			argv := args.Get(2).([]string)
			dir = filepath.Dir(argv[len(argv)-1])
			writeOutput([]byte("wav"))(args)
		}).
		Return([]byte(nil), []byte(nil), nil).Once()

	tr := NewTranscoder(NewExecutorWithRunner("ffmpeg", time.Second, runner))
	_, err := tr.ToWAV(context.Background(), []byte("x"))
	require.NoError(t, err)

	_, statErr := os.Stat(dir)
	assert.True(t, errors.Is(statErr, fs.ErrNotExist))
}

func TestTranscoder_ToWAVErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		stderr string
		want   error
	}{
		{
			name: "binary missing",
			err:  &exec.Error{Name: "ffmpeg", Err: exec.ErrNotFound},
			want: ErrUnavailable,
		},
		{
			name: "binary path missing",
			err:  &fs.PathError{Op: "fork/exec", Path: "/opt/ffmpeg", Err: fs.ErrNotExist},
			want: ErrUnavailable,
		},
		{
			name:   "encoder missing",
			err:    errors.New("exit status 1"),
			stderr: "Unknown encoder 'pcm_s16le'",
			want:   ErrUnavailable,
		},
		{
			name:   "garbage input",
			err:    errors.New("exit status 1"),
			stderr: "input: Invalid data found when processing input",
			want:   ErrInvalidInput,
		},
		{
			name: "silent failure",
			err:  errors.New("exit status 69"),
			want: ErrInvalidInput,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runner := new(MockRunner)
			runner.On("Run", mock.Anything, "ffmpeg", mock.Anything, nil).
				Return([]byte(nil), []byte(tc.stderr), tc.err).Once()

			tr := NewTranscoder(NewExecutorWithRunner("ffmpeg", time.Second, runner))
			_, err := tr.ToWAV(context.Background(), []byte("payload"))

			assert.ErrorIs(t, err, tc.want)
			if tc.stderr != "" {
				assert.Contains(t, err.Error(), tc.stderr)
			}
		})
	}
}

func TestTranscoder_ToWAVCallerCanceled(t *testing.T) {
	runner := new(MockRunner)
	ctx, cancel := context.WithCancel(context.Background())
	runner.On("Run", mock.Anything, "ffmpeg", mock.Anything, nil).
		Run(func(mock.Arguments) { cancel() }).
		Return([]byte(nil), []byte(nil), errors.New("signal: killed")).Once()

	tr := NewTranscoder(NewExecutorWithRunner("ffmpeg", time.Minute, runner))
	_, err := tr.ToWAV(ctx, []byte("payload"))

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, ErrInvalidInput)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestTranscoder_ToWAVNoOutput(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Run", mock.Anything, "ffmpeg", mock.Anything, nil).
		Return([]byte(nil), []byte(nil), nil).Once()

	tr := NewTranscoder(NewExecutorWithRunner("ffmpeg", time.Second, runner))
	_, err := tr.ToWAV(context.Background(), []byte("payload"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBuildArgs(t *testing.T) {
	args := BuildArgs("/tmp/in", "/tmp/out.wav")

	assert.Equal(t, "/tmp/out.wav", args[len(args)-1])
	assert.Equal(t, "/tmp/in", args[indexOf(args, "-i")+1])
	assert.Equal(t, OutputCodec, args[indexOf(args, "-c:a")+1])
	assert.NotContains(t, args, "-ar", "sample rate must be preserved")
	assert.NotContains(t, args, "-ac", "channel layout must be preserved")
}

// --- Integration (real ffmpeg) ---

func requireFFmpeg(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping ffmpeg integration in short mode")
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
}

func TestTranscoder_Integration(t *testing.T) {
	requireFFmpeg(t)

	// One second of a 16 kHz stereo sine, generated as FLAC so the transcoder really decodes.
	src := filepath.Join(t.TempDir(), "tone.flac")
	gen := exec.Command("ffmpeg", "-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "sine=frequency=440:sample_rate=16000:duration=1",
		"-ac", "2", "-c:a", "flac", "-y", src)
	out, err := gen.CombinedOutput()
	require.NoError(t, err, string(out))

	data, err := os.ReadFile(src)
	require.NoError(t, err)

	tr := NewTranscoder(NewExecutor("ffmpeg", 30*time.Second))
	first, err := tr.ToWAV(context.Background(), data)
	require.NoError(t, err)
	second, err := tr.ToWAV(context.Background(), data)
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(first, []byte("RIFF")))
	assert.Equal(t, first, second, "transcoding must be deterministic")
}

func TestTranscoder_IntegrationRejectsText(t *testing.T) {
	requireFFmpeg(t)

	tr := NewTranscoder(NewExecutor("ffmpeg", 30*time.Second))
	_, err := tr.ToWAV(context.Background(), []byte("this is a plain text file, not audio\n"))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput, fmt.Sprintf("got %v", err))
}

func TestTranscoder_IntegrationMissingBinary(t *testing.T) {
	tr := NewTranscoder(NewExecutor("quietwave-no-such-ffmpeg", time.Second))
	_, err := tr.ToWAV(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func indexOf(args []string, flag string) int {
	for i, a := range args {
		if a == flag {
			return i
		}
	}
	return -1
}
