// Package grpc exposes the standard gRPC health service for the denoiser.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/ekisa-team/quietwave/internal/model"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name that tracks the default model.
const ServiceName = "quietwave.Denoiser"

// modelServicePrefix prefixes the per-model health service names.
const modelServicePrefix = "quietwave.model."

// Server is the gRPC server.
type Server struct {
	server *grpc.Server
	health *health.Server

	mu    sync.Mutex
	known map[string]struct{}
}

// NewServer creates a server that reports NOT_SERVING until UpdateModels is called.
func NewServer() *Server {
	srv := grpc.NewServer()
	hs := health.NewServer()

	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &Server{
		server: srv,
		health: hs,
		known:  map[string]struct{}{},
	}
}

// ModelServiceName returns the health service name for the model id.
func ModelServiceName(id string) string {
	return modelServicePrefix + id
}

// UpdateModels publishes the status of every model. The overall status follows the default model.
func (s *Server) UpdateModels(models []model.ModelInfo, defaultID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(models))
	overall := healthpb.HealthCheckResponse_NOT_SERVING

	for _, m := range models {
		status := healthpb.HealthCheckResponse_NOT_SERVING
		if m.Status == model.ModelStatusLoaded {
			status = healthpb.HealthCheckResponse_SERVING
		}
		if m.ID == defaultID {
			overall = status
		}

		name := ModelServiceName(m.ID)
		s.health.SetServingStatus(name, status)
		seen[name] = struct{}{}
	}

	// Models dropped by a reload stop serving rather than disappearing.
	for name := range s.known {
		if _, ok := seen[name]; !ok {
			s.health.SetServingStatus(name, healthpb.HealthCheckResponse_NOT_SERVING)
			seen[name] = struct{}{}
		}
	}
	s.known = seen

	s.health.SetServingStatus("", overall)
	s.health.SetServingStatus(ServiceName, overall)
}

// Serve accepts connections on l until Shutdown is called.
func (s *Server) Serve(l net.Listener) error {
	slog.Info("gRPC server listening", "addr", l.Addr().String())

	if err := s.server.Serve(l); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("grpc server: %w", err)
	}
	return nil
}

// ListenAndServe listens on port.
func (s *Server) ListenAndServe(port int) error {
	addr := fmt.Sprintf(":%d", port)
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(l)
}

// Shutdown stops the server gracefully, forcing it closed when ctx is done first.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return ctx.Err()
	}
}
