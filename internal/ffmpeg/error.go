package ffmpeg

import "errors"

// Error definitions for the ffmpeg package.
var (
	// ErrUnavailable means the transcoding toolchain is missing or misconfigured.
	ErrUnavailable = errors.New("ffmpeg is unavailable")

	// ErrTimeout means ffmpeg did not finish before its deadline.
	ErrTimeout = errors.New("ffmpeg timed out")

	// ErrInvalidInput means ffmpeg ran but could not read the supplied bytes as audio.
	ErrInvalidInput = errors.New("input is not decodable audio")
)
