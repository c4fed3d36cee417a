package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/ekisa-team/quietwave/internal/model"
)

const (
	healthOK       = "ok"
	healthDegraded = "degraded"
)

// ModelLister reports the configured models.
type ModelLister interface {
	List() []model.ModelInfo
	DefaultModelID() string
}

// Checker reports whether an external dependency is usable.
type Checker interface {
	Available() error
}

type (
	DependencyStatus struct {
		Available bool   `json:"available"`
		Error     string `json:"error,omitempty"`
	}

	HealthResponseDTO struct {
		Status       string            `json:"status" enum:"ok,degraded"`
		DefaultModel string            `json:"default_model"`
		Models       []model.ModelInfo `json:"models"`
		FFmpeg       DependencyStatus  `json:"ffmpeg"`
	}

	HealthOutput struct {
		Status int
		Body   HealthResponseDTO
	}
)

// HealthHandler handles HTTP requests for service health.
type HealthHandler struct {
	models ModelLister
	ffmpeg Checker
}

// NewHealthHandler registers GET /healthz on api.
func NewHealthHandler(api huma.API, models ModelLister, ffmpeg Checker) *HealthHandler {
	h := &HealthHandler{models: models, ffmpeg: ffmpeg}

	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/healthz",
		Summary:     "Report model and transcoder availability",
		Tags:        []string{"health"},
	}, h.handleHealth)

	return h
}

// handleHealth answers 200 when the default model is loaded and ffmpeg is present, 503 otherwise.
func (h *HealthHandler) handleHealth(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	body := HealthResponseDTO{
		Status:       healthOK,
		DefaultModel: h.models.DefaultModelID(),
		Models:       h.models.List(),
		FFmpeg:       DependencyStatus{Available: true},
	}

	if err := h.ffmpeg.Available(); err != nil {
		body.FFmpeg = DependencyStatus{Error: err.Error()}
		body.Status = healthDegraded
	}

	defaultLoaded := false
	for _, m := range body.Models {
		if m.ID == body.DefaultModel && m.Status == model.ModelStatusLoaded {
			defaultLoaded = true
		}
	}
	if !defaultLoaded {
		body.Status = healthDegraded
	}

	status := http.StatusOK
	if body.Status != healthOK {
		status = http.StatusServiceUnavailable
	}

	return &HealthOutput{Status: status, Body: body}, nil
}
