package http

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/ekisa-team/quietwave/internal/service"
)

// Messages returned for the fixed client-facing failures.
const (
	MsgNoFilePart       = "No file part"
	MsgNoSelectedFile   = "No selected file"
	MsgEmptyFile        = "Uploaded file is empty"
	MsgModelNotFound    = "model not found"
	MsgModelNotLoaded   = "Model is not loaded on the server"
	MsgCodecUnavailable = "Server failed to convert audio. Is FFmpeg installed?"
	MsgUndecodable      = "Uploaded file is not a decodable audio recording"
	MsgShape            = "Model input or output has an unexpected shape"
	MsgInference        = "Model inference failed"
	MsgInternal         = "Internal server error"
)

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	status  int
	Message string `json:"error"`
}

// Error implements error.
func (e *ErrorBody) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *ErrorBody) GetStatus() int {
	return e.status
}

func init() {
	huma.NewError = func(status int, msg string, _ ...error) huma.StatusError {
		return &ErrorBody{status: status, Message: msg}
	}
}

// kindStatus maps every pipeline error kind to its response status and message.
var kindStatus = map[service.Kind]struct {
	status  int
	message string
}{
	service.KindNoFileSupplied:   {http.StatusBadRequest, MsgEmptyFile},
	service.KindDecode:           {http.StatusInternalServerError, MsgUndecodable},
	service.KindModelNotFound:    {http.StatusNotFound, MsgModelNotFound},
	service.KindModelUnavailable: {http.StatusInternalServerError, MsgModelNotLoaded},
	service.KindCodecEnvironment: {http.StatusInternalServerError, MsgCodecUnavailable},
	service.KindShape:            {http.StatusInternalServerError, MsgShape},
	service.KindInference:        {http.StatusInternalServerError, MsgInference},
	service.KindInternal:         {http.StatusInternalServerError, MsgInternal},
}

// toStatusError converts a pipeline failure into a response.
func toStatusError(err error) huma.StatusError {
	var e *service.Error
	if !errors.As(err, &e) {
		return huma.NewError(http.StatusInternalServerError, MsgInternal)
	}

	m, ok := kindStatus[e.Kind]
	if !ok {
		return huma.NewError(http.StatusInternalServerError, MsgInternal)
	}
	return huma.NewError(m.status, m.message)
}
