package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ekisa-team/quietwave/internal/env"
)

// Options configures the process logger.
type Options struct {
	Output     io.Writer
	LogFile    string
	Level      slog.Level
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	LogToFile  bool
}

// Option mutates Options.
type Option func(*Options)

// WithLogToFile enables or disables mirroring logs to a rotated file.
func WithLogToFile(enabled bool) Option {
	return func(o *Options) {
		o.LogToFile = enabled
	}
}

// WithLogFile sets the path of the rotated log file.
func WithLogFile(path string) Option {
	return func(o *Options) {
		o.LogFile = path
	}
}

// WithLevel sets the minimum level.
func WithLevel(level slog.Level) Option {
	return func(o *Options) {
		o.Level = level
	}
}

// WithOutput replaces the console writer (stderr by default).
func WithOutput(w io.Writer) Option {
	return func(o *Options) {
		o.Output = w
	}
}

// New builds a slog.Logger for the given environment.
// Development logs are colourised by tint, production logs are JSON.
func New(environment env.Environment, opts ...Option) *slog.Logger {
	o := Options{
		Output:     os.Stderr,
		LogFile:    "logs/quietwave.log",
		Level:      slog.LevelInfo,
		MaxSizeMB:  50,
		MaxBackups: 5,
		MaxAgeDays: 28,
	}
	if !environment.IsProduction() {
		o.Level = slog.LevelDebug
	}
	for _, opt := range opts {
		opt(&o)
	}

	w := o.Output
	if o.LogToFile {
		w = io.MultiWriter(o.Output, &lumberjack.Logger{
			Filename:   o.LogFile,
			MaxSize:    o.MaxSizeMB,
			MaxBackups: o.MaxBackups,
			MaxAge:     o.MaxAgeDays,
			Compress:   true,
		})
	}

	if environment.IsProduction() {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: o.Level}))
	}

	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      o.Level,
		TimeFormat: time.TimeOnly,
		NoColor:    o.LogToFile || !isTerminal(o.Output),
	}))
}

// isTerminal reports whether w is a terminal that can render ANSI colours.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
