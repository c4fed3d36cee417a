// Package service implements the denoise pipeline: normalize the upload, shape it for the
// model, run inference, and encode the cleaned waveform as WAV.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ekisa-team/quietwave/internal/audio"
	"github.com/ekisa-team/quietwave/internal/ffmpeg"
	"github.com/ekisa-team/quietwave/internal/model"
	"github.com/ekisa-team/quietwave/internal/tensor"
	"github.com/google/uuid"
)

// Stage names reported to the Recorder.
const (
	StageNormalize = "normalize"
	StageShape     = "shape"
	StageInfer     = "infer"
	StageEncode    = "encode"

	outcomeOK = "ok"
)

// Recorder receives pipeline measurements.
type Recorder interface {
	ObserveRequest(model, outcome string)
	ObserveStage(stage string, d time.Duration)
	ObserveUpload(n int)
}

type noopRecorder struct{}

func (noopRecorder) ObserveRequest(string, string)      {}
func (noopRecorder) ObserveStage(string, time.Duration) {}
func (noopRecorder) ObserveUpload(int)                  {}

// DenoiseRequest is one uploaded clip.
type DenoiseRequest struct {
	// RequestID correlates logs; one is generated when empty.
	RequestID string

	// ModelID selects a configured model; empty selects the default.
	ModelID string

	Filename string
	Audio    []byte
}

// DenoiseResult is the cleaned clip.
type DenoiseResult struct {
	RequestID  string
	ModelID    string
	Audio      []byte
	SampleRate int
	Samples    int
	Elapsed    time.Duration
}

// Option configures a Denoiser.
type Option func(*Denoiser)

// WithRecorder reports measurements to r.
func WithRecorder(r Recorder) Option {
	return func(d *Denoiser) {
		d.recorder = r
	}
}

// Denoiser runs uploads through the pipeline. It holds no per-request state and is safe for
// concurrent use.
type Denoiser struct {
	models     Models
	normalizer Normalizer
	recorder   Recorder
}

// NewDenoiser creates a Denoiser.
func NewDenoiser(models Models, normalizer Normalizer, opts ...Option) *Denoiser {
	d := &Denoiser{
		models:     models,
		normalizer: normalizer,
		recorder:   noopRecorder{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// run carries one request through the pipeline.
type run struct {
	*Denoiser
	log     *slog.Logger
	state   State
	modelID string
}

// Denoise cleans req.Audio. Failures are always *Error values.
func (d *Denoiser) Denoise(ctx context.Context, req DenoiseRequest) (*DenoiseResult, error) {
	start := time.Now()
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	r := &run{
		Denoiser: d,
		log:      slog.With("request_id", req.RequestID, "filename", req.Filename),
		state:    StateReceived,
		modelID:  req.ModelID,
	}

	cleaned, err := r.process(ctx, req)
	var encoded []byte
	if err == nil {
		encoded, err = r.encode(cleaned)
	}
	if err != nil {
		var e *Error
		if !errors.As(err, &e) {
			e = r.errorf(KindInternal, err, "unexpected failure")
		}
		r.fail(e)
		return nil, e
	}

	r.advance(StateDone)
	elapsed := time.Since(start)
	d.recorder.ObserveRequest(r.modelID, outcomeOK)

	r.log.Info("Denoised audio",
		"model_id", r.modelID,
		"sample_rate", cleaned.SampleRate,
		"samples", cleaned.Len(),
		"input_bytes", len(req.Audio),
		"output_bytes", len(encoded),
		"elapsed", elapsed,
	)

	return &DenoiseResult{
		RequestID:  req.RequestID,
		ModelID:    r.modelID,
		Audio:      encoded,
		SampleRate: cleaned.SampleRate,
		Samples:    cleaned.Len(),
		Elapsed:    elapsed,
	}, nil
}

// process runs Received through Inferred and returns the cleaned waveform at the source rate.
func (r *run) process(ctx context.Context, req DenoiseRequest) (*audio.Waveform, error) {
	id, m, err := r.models.Resolve(req.ModelID)
	r.modelID = id
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, r.errorf(KindModelNotFound, err, "model not found")
		}
		return nil, r.errorf(KindModelUnavailable, err, "model is not loaded")
	}
	r.log = r.log.With("model_id", id)

	if len(req.Audio) == 0 {
		return nil, r.errorf(KindNoFileSupplied, nil, "uploaded file is empty")
	}
	r.recorder.ObserveUpload(len(req.Audio))

	// Received -> Decoded
	var waveform *audio.Waveform
	err = r.timed(StageNormalize, func() error {
		waveform, err = r.normalizer.Normalize(ctx, req.Audio)
		return err
	})
	if err != nil {
		return nil, r.decodeError(err)
	}
	r.advance(StateDecoded)
	sourceRate := waveform.SampleRate

	// Decoded -> Shaped
	var input *tensor.Tensor
	err = r.timed(StageShape, func() error {
		if rate := m.SampleRate(); rate > 0 && rate != waveform.SampleRate {
			if waveform, err = audio.Resample(waveform, rate); err != nil {
				return err
			}
		}
		input, err = tensor.ToModelInput(waveform)
		return err
	})
	if err != nil {
		return nil, r.errorf(KindShape, err, "failed to shape model input")
	}
	r.advance(StateShaped)

	// Shaped -> Inferred
	var output *tensor.Tensor
	err = r.timed(StageInfer, func() error {
		output, err = m.Infer(ctx, input)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, tensor.ErrShape), errors.Is(err, tensor.ErrDType):
			return nil, r.errorf(KindShape, err, "model rejected input tensor %s", input)
		case errors.Is(err, model.ErrUnavailable):
			return nil, r.errorf(KindModelUnavailable, err, "model is not loaded")
		default:
			return nil, r.errorf(KindInference, err, "model inference failed")
		}
	}
	r.advance(StateInferred)

	samples, err := tensor.FromModelOutput(output)
	if err != nil {
		return nil, r.errorf(KindShape, err, "unexpected model output %s", output)
	}
	if i := audio.FirstNonFinite(samples); i >= 0 {
		return nil, r.errorf(KindInference, audio.ErrNonFinite, "model produced %v at sample %d", samples[i], i)
	}

	cleaned := &audio.Waveform{Samples: samples, SampleRate: waveform.SampleRate}
	if cleaned.SampleRate != sourceRate {
		if cleaned, err = audio.Resample(cleaned, sourceRate); err != nil {
			return nil, r.errorf(KindInternal, err, "failed to resample output to %d Hz", sourceRate)
		}
	}

	return cleaned, nil
}

// encode runs Inferred to Encoded.
func (r *run) encode(cleaned *audio.Waveform) ([]byte, error) {
	var encoded []byte
	err := r.timed(StageEncode, func() error {
		var err error
		encoded, err = audio.EncodeWAV(cleaned)
		return err
	})
	if err != nil {
		if errors.Is(err, audio.ErrNonFinite) {
			return nil, r.errorf(KindInference, err, "model output is not finite")
		}
		return nil, r.errorf(KindInternal, err, "failed to encode output")
	}
	r.advance(StateEncoded)
	return encoded, nil
}

// decodeError classifies a normalizer failure.
func (r *run) decodeError(err error) *Error {
	switch {
	case errors.Is(err, ffmpeg.ErrUnavailable), errors.Is(err, ffmpeg.ErrTimeout):
		return r.errorf(KindCodecEnvironment, err, "audio transcoder unavailable")
	case errors.Is(err, ffmpeg.ErrInvalidInput),
		errors.Is(err, audio.ErrMalformed),
		errors.Is(err, audio.ErrUnsupported),
		errors.Is(err, audio.ErrNoChannels),
		errors.Is(err, audio.ErrSampleRate),
		errors.Is(err, audio.ErrEmpty):
		return r.errorf(KindDecode, err, "uploaded file is not decodable audio")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return r.errorf(KindInternal, err, "request aborted while decoding")
	default:
		return r.errorf(KindInternal, err, "failed to normalize audio")
	}
}

// errorf builds an *Error for the run's current state.
func (r *run) errorf(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:  kind,
		State: r.state,
		Msg:   fmt.Sprintf(format, args...),
		Err:   cause,
	}
}

func (r *run) advance(s State) {
	r.log.Debug("Pipeline state changed", "from", r.state, "to", s)
	r.state = s
}

func (r *run) timed(stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	r.recorder.ObserveStage(stage, time.Since(start))
	return err
}

// fail moves the run to Failed and logs the error: server-side kinds at error level with the
// full cause, client-side kinds at warn.
func (r *run) fail(e *Error) {
	r.recorder.ObserveRequest(r.modelID, string(e.Kind))
	attrs := []any{"kind", e.Kind, "state", e.State, "error", e}
	r.state = StateFailed

	if e.Kind.ClientError() {
		r.log.Warn("Denoise request rejected", attrs...)
		return
	}
	r.log.Error("Denoise request failed", attrs...)
}
