package http

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/ekisa-team/quietwave/internal/service"
	"github.com/google/uuid"
)

const (
	formFieldFile = "file"

	outputFilename = "cleaned.wav"
)

type (
	DenoiseInput struct {
		RequestID string `header:"X-Request-ID" required:"false"`
		RawBody   huma.MultipartFormFiles[struct {
			ModelID string `form:"model_id" required:"false"`
		}]
	}

	DenoiseOutput struct {
		ContentType        string `header:"Content-Type"`
		ContentDisposition string `header:"Content-Disposition"`
		SampleRate         int    `header:"X-Sample-Rate"`
		ModelID            string `header:"X-Model-ID"`
		RequestID          string `header:"X-Request-ID"`
		Body               []byte
	}
)

// Denoiser is the pipeline behind POST /denoise.
type Denoiser interface {
	Denoise(ctx context.Context, req service.DenoiseRequest) (*service.DenoiseResult, error)
}

// DenoiseHandler handles HTTP requests for denoising.
type DenoiseHandler struct {
	denoiser Denoiser
	timeout  time.Duration
}

// NewDenoiseHandler registers POST /denoise on api.
func NewDenoiseHandler(api huma.API, denoiser Denoiser, maxUploadBytes int64, timeout time.Duration) *DenoiseHandler {
	h := &DenoiseHandler{denoiser: denoiser, timeout: timeout}

	huma.Register(api, huma.Operation{
		OperationID:     "denoise",
		Method:          http.MethodPost,
		Path:            "/denoise",
		Summary:         "Remove noise from an audio recording",
		Description:     "Accepts any container ffmpeg can read and returns a 16-bit mono WAV at the original sample rate.",
		Tags:            []string{"denoise"},
		DefaultStatus:   http.StatusOK,
		MaxBodyBytes:    maxUploadBytes,
		BodyReadTimeout: timeout,
		Responses: map[string]*huma.Response{
			"200": {
				Description: "Cleaned audio",
				Content:     map[string]*huma.MediaType{"audio/wav": {}},
			},
		},
	}, h.handleDenoise)

	return h
}

// handleDenoise handles the denoise operation.
func (h *DenoiseHandler) handleDenoise(ctx context.Context, input *DenoiseInput) (*DenoiseOutput, error) {
	form := input.RawBody.Form
	if form == nil {
		return nil, huma.Error400BadRequest(MsgNoFilePart)
	}

	header, err := uploadedFile(form)
	if err != nil {
		return nil, err
	}

	f, err := header.Open()
	if err != nil {
		return nil, huma.Error500InternalServerError(MsgInternal, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, huma.Error500InternalServerError(MsgInternal, err)
	}

	requestID := input.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	res, err := h.denoiser.Denoise(ctx, service.DenoiseRequest{
		RequestID: requestID,
		ModelID:   input.RawBody.Data().ModelID,
		Filename:  header.Filename,
		Audio:     data,
	})
	if err != nil {
		return nil, toStatusError(err)
	}

	return &DenoiseOutput{
		ContentType:        "audio/wav",
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", outputFilename),
		SampleRate:         res.SampleRate,
		ModelID:            res.ModelID,
		RequestID:          res.RequestID,
		Body:               res.Audio,
	}, nil
}

// uploadedFile returns the file part of form. A part sent with an empty filename is parsed as
// a plain value, which is how browsers submit an empty file input.
func uploadedFile(form *multipart.Form) (*multipart.FileHeader, error) {
	if files := form.File[formFieldFile]; len(files) > 0 {
		if files[0].Filename == "" {
			return nil, huma.Error400BadRequest(MsgNoSelectedFile)
		}
		return files[0], nil
	}
	if _, ok := form.Value[formFieldFile]; ok {
		return nil, huma.Error400BadRequest(MsgNoSelectedFile)
	}
	return nil, huma.Error400BadRequest(MsgNoFilePart)
}
