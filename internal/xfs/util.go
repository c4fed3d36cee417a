package xfs

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ExpandTilde replaces a leading tilde (~) with the user's home directory.
func ExpandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}

	return path
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// WithTempDir creates a scratch directory, runs fn inside it and removes it afterwards.
func WithTempDir(pattern string, fn func(dir string) error) error {
	dir, err := os.MkdirTemp("", pattern)
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			slog.Warn("Failed to remove temp dir", "path", dir, "error", err)
		}
	}()

	return fn(dir)
}
