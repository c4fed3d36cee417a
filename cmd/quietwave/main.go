package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"

	"github.com/ekisa-team/quietwave/internal/backend"
	"github.com/ekisa-team/quietwave/internal/backend/onnx"
	"github.com/ekisa-team/quietwave/internal/config"
	"github.com/ekisa-team/quietwave/internal/env"
	"github.com/ekisa-team/quietwave/internal/ffmpeg"
	"github.com/ekisa-team/quietwave/internal/logger"
	"github.com/ekisa-team/quietwave/internal/metrics"
	"github.com/ekisa-team/quietwave/internal/model"
	grpcserver "github.com/ekisa-team/quietwave/internal/server/grpc"
	httpserver "github.com/ekisa-team/quietwave/internal/server/http"
	"github.com/ekisa-team/quietwave/internal/service"
	"github.com/ekisa-team/quietwave/internal/xfs"
)

const shutdownTimeout = 30 * time.Second

type flags struct {
	httpPort   int
	grpcPort   int
	configPath string
	schemaPath string

	// set holds the names of flags given on the command line.
	set map[string]bool
}

func main() {
	var f flags
	flag.IntVar(&f.httpPort, "http-port", config.DefaultHTTPPort(), "HTTP port to listen on")
	flag.IntVar(&f.grpcPort, "grpc-port", config.DefaultGRPCPort(), "gRPC port to listen on")
	flag.StringVar(&f.configPath, "config", path.Join(config.DefaultConfigPath(), "config.yaml"), "Path to config file")
	flag.StringVar(&f.schemaPath, "schema", "", "Path to schema file (defaults to the built-in schema)")
	flag.Parse()

	f.set = make(map[string]bool)
	flag.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	environment := env.FromEnv()

	slog.SetDefault(
		logger.New(environment,
			logger.WithLogToFile(environment.IsProduction()),
			logger.WithLogFile("logs/quietwave.log"),
		),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, f); err != nil {
		slog.Error("quietwave exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, f flags) error {
	m := metrics.New()

	backends := backend.NewRegistry()
	manager := model.NewManager(backends)

	grpcSrv := grpcserver.NewServer()

	onReload := reloadHandler(f, manager, func() { publishModels(manager, m, grpcSrv) })

	cfg, watcher, err := loadConfig(f, backends, onReload)
	if err != nil {
		return err
	}
	if watcher != nil {
		defer watcher.Close()
	}

	executor := ffmpeg.NewExecutor(cfg.Transcoder.FFmpegPath, cfg.Transcoder.Timeout)
	if err := executor.Available(); err != nil {
		slog.Warn("ffmpeg is not available, uploads will fail until it is installed", "error", err)
	}

	if err := manager.LoadModelsFromConfig(ctx, cfg); err != nil {
		return fmt.Errorf("failed to load models: %w", err)
	}
	publishModels(manager, m, grpcSrv)

	slog.Info("Config loaded successfully",
		"config", f.configPath,
		"default_model", manager.DefaultModelID(),
		"watching", watcher != nil,
	)

	denoiser := service.NewDenoiser(
		service.ModelsFromManager(manager),
		service.NewFormatNormalizer(ffmpeg.NewTranscoder(executor)),
		service.WithRecorder(m),
	)

	httpSrv := httpserver.NewServer(httpserver.Config{
		Port:           cfg.Server.HTTPPort,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, httpserver.Deps{
		Denoiser:   denoiser,
		Models:     manager,
		FFmpeg:     executor,
		Metrics:    m.Handler(),
		Middleware: m.Middleware,
	})

	errCh := make(chan error, 2)
	go func() { errCh <- httpSrv.ListenAndServe() }()
	go func() { errCh <- grpcSrv.ListenAndServe(cfg.Server.GRPCPort) }()

	var serveErr error
	select {
	case <-ctx.Done():
		slog.Info("Shutting down")
	case serveErr = <-errCh:
		slog.Error("Server stopped unexpectedly", "error", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var result *multierror.Error
	if serveErr != nil {
		result = multierror.Append(result, serveErr)
	}
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, fmt.Errorf("http shutdown: %w", err))
	}
	if err := grpcSrv.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, fmt.Errorf("grpc shutdown: %w", err))
	}
	if err := manager.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := onnx.DestroyEnvironment(); err != nil {
		result = multierror.Append(result, fmt.Errorf("onnxruntime: %w", err))
	}

	return result.ErrorOrNil()
}

// loadConfig resolves the startup config and registers the backends it names. The file is
// watched only once the backends exist, so a reload never sees an empty backend registry.
func loadConfig(f flags, backends *backend.Registry, onReload func(*config.Config, error)) (*config.Config, *config.Watcher, error) {
	configPath := xfs.ExpandTilde(f.configPath)
	schemaPath := f.schemaPath
	if schemaPath != "" {
		schemaPath = xfs.ExpandTilde(schemaPath)
	}

	cfg, err := config.Load(configPath, schemaPath)
	if err != nil {
		return nil, nil, err
	}
	applyFlags(cfg, f)

	if err := backends.Register(backend.BackendProviderONNXRuntime, onnx.NewLoader(cfg.ONNX.SharedLibraryPath)); err != nil {
		return nil, nil, err
	}

	if !xfs.Exists(configPath) {
		return cfg, nil, nil
	}

	watcher, err := config.NewWatcher(configPath, schemaPath, onReload)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create config watcher: %w", err)
	}
	return cfg, watcher, nil
}

type modelLoader interface {
	LoadModelsFromConfig(ctx context.Context, cfg *config.Config) error
}

// reloadHandler swaps the model set on every config change and republishes its health.
func reloadHandler(f flags, loader modelLoader, publish func()) func(*config.Config, error) {
	return func(cfg *config.Config, err error) {
		if err != nil {
			slog.Error("Failed to reload config", "error", err)
			return
		}
		applyFlags(cfg, f)
		if err := loader.LoadModelsFromConfig(context.Background(), cfg); err != nil {
			slog.Error("Failed to load models from config", "error", err)
			return
		}
		publish()
	}
}

// applyFlags lets explicitly set port flags win over the config file and environment.
func applyFlags(cfg *config.Config, f flags) {
	if f.set["http-port"] {
		cfg.Server.HTTPPort = f.httpPort
	}
	if f.set["grpc-port"] {
		cfg.Server.GRPCPort = f.grpcPort
	}
}

func publishModels(manager *model.Manager, m *metrics.Metrics, grpcSrv *grpcserver.Server) {
	models := manager.List()

	m.ResetModels()
	for _, info := range models {
		m.SetModelLoaded(info.ID, info.Status == model.ModelStatusLoaded)
	}

	grpcSrv.UpdateModels(models, manager.DefaultModelID())
}
