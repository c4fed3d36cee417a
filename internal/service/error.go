package service

import (
	"errors"
	"fmt"
)

// Kind classifies a failed denoise request. The set is closed; the HTTP boundary maps every
// kind to exactly one status code.
type Kind string

const (
	KindNoFileSupplied   Kind = "no_file_supplied"
	KindModelNotFound    Kind = "model_not_found"
	KindModelUnavailable Kind = "model_unavailable"
	KindCodecEnvironment Kind = "codec_environment"
	KindDecode           Kind = "decode"
	KindShape            Kind = "shape"
	KindInference        Kind = "inference"
	KindInternal         Kind = "internal"
)

// ClientError reports whether the kind is correctable by the caller.
func (k Kind) ClientError() bool {
	switch k {
	case KindNoFileSupplied, KindModelNotFound:
		return true
	default:
		return false
	}
}

// Error is a failed denoise request.
type Error struct {
	Kind  Kind
	State State
	Msg   string
	Err   error
}

// Error implements error.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
