// Package http exposes the denoiser over HTTP with huma.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
)

const (
	apiTitle   = "quietwave"
	apiVersion = "1.0.0"

	readHeaderTimeout = 10 * time.Second
)

// Config holds the listener settings.
type Config struct {
	Port           int
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

// Deps are the collaborators the routes call into.
type Deps struct {
	Denoiser Denoiser
	Models   ModelLister
	FFmpeg   Checker

	// Metrics, when set, is served on GET /metrics.
	Metrics http.Handler

	// Middleware, when set, wraps every route.
	Middleware func(http.Handler) http.Handler
}

// Server is the HTTP server.
type Server struct {
	api    huma.API
	server *http.Server
}

// NewServer wires the routes.
func NewServer(cfg Config, deps Deps) *Server {
	mux := http.NewServeMux()

	humaConfig := huma.DefaultConfig(apiTitle, apiVersion)
	humaConfig.Info.Description = "Single-shot neural audio denoising."
	// Without the schema link hook, error bodies are exactly {"error": msg}.
	humaConfig.CreateHooks = nil
	api := humago.New(mux, humaConfig)

	NewDenoiseHandler(api, deps.Denoiser, cfg.MaxUploadBytes, cfg.RequestTimeout)
	NewHealthHandler(api, deps.Models, deps.FFmpeg)

	mux.HandleFunc("GET /{$}", serveIndex)
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics)
	}

	var handler http.Handler = mux
	if deps.Middleware != nil {
		handler = deps.Middleware(handler)
	}

	return &Server{
		api: api,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}
}

// API returns the huma API, e.g. for OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Serve accepts connections on l until Shutdown is called.
func (s *Server) Serve(l net.Listener) error {
	slog.Info("HTTP server listening", "addr", l.Addr().String())

	if err := s.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// ListenAndServe listens on the configured port.
func (s *Server) ListenAndServe() error {
	l, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	return s.Serve(l)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
