// Package ffmpeg converts arbitrary uploaded media into PCM WAV using an ffmpeg subprocess.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ekisa-team/quietwave/internal/xfs"
)

const (
	inputFilename  = "input"
	outputFilename = "output.wav"

	// OutputCodec is the PCM codec of every transcoded file.
	OutputCodec = "pcm_s16le"
)

// envMarkers are stderr fragments that point at the toolchain, not at the upload.
var envMarkers = []string{
	"unknown encoder",
	"encoder not found",
	"unrecognized option",
	"error while loading shared libraries",
	"could not open output",
}

// Transcoder turns arbitrary audio containers into 16-bit PCM WAV, preserving sample rate
// and channel layout.
type Transcoder struct {
	executor *Executor
}

// NewTranscoder creates a transcoder backed by executor.
func NewTranscoder(executor *Executor) *Transcoder {
	return &Transcoder{executor: executor}
}

// Available reports whether ffmpeg can be found.
func (t *Transcoder) Available() error {
	return t.executor.Available()
}

// ToWAV transcodes src into a WAV container. Errors wrap ErrUnavailable or ErrTimeout when the
// toolchain is at fault and ErrInvalidInput when the bytes themselves are rejected.
func (t *Transcoder) ToWAV(ctx context.Context, src []byte) ([]byte, error) {
	var wav []byte

	err := xfs.WithTempDir("quietwave-*", func(dir string) error {
		// Containers like mp4 keep their index at the end, so ffmpeg needs a seekable input.
		inPath := filepath.Join(dir, inputFilename)
		if err := os.WriteFile(inPath, src, 0o600); err != nil {
			return fmt.Errorf("failed to stage input: %w", err)
		}

		outPath := filepath.Join(dir, outputFilename)
		args := BuildArgs(inPath, outPath)

		_, stderr, err := t.executor.Execute(ctx, args, nil)
		if err != nil {
			return classify(err, stderr)
		}

		wav, err = os.ReadFile(outPath)
		if err != nil {
			return fmt.Errorf("%w: no output produced: %w", ErrInvalidInput, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("Transcoded upload", "input_bytes", len(src), "output_bytes", len(wav))
	return wav, nil
}

// BuildArgs builds ffmpeg command-line arguments. Bit-exact flags keep the output identical
// for identical input.
func BuildArgs(inPath, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-loglevel", "error",
		"-i", inPath,
		"-vn", "-sn", "-dn",
		"-map_metadata", "-1",
		"-fflags", "+bitexact",
		"-flags:a", "+bitexact",
		"-c:a", OutputCodec,
		"-f", "wav",
		"-y", outPath,
	}
}

// classify maps a failed run onto the package's error kinds.
func classify(err error, stderr []byte) error {
	msg := strings.TrimSpace(string(stderr))

	switch {
	case errors.Is(err, ErrTimeout),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, exec.ErrNotFound),
		errors.Is(err, fs.ErrNotExist),
		errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	lower := strings.ToLower(msg)
	for _, marker := range envMarkers {
		if strings.Contains(lower, marker) {
			return fmt.Errorf("%w: %s", ErrUnavailable, msg)
		}
	}

	if msg == "" {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
