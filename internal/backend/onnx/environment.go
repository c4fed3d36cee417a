package onnx

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ekisa-team/quietwave/internal/xfs"
	ort "github.com/yalue/onnxruntime_go"
)

// ErrSharedLibrary is returned when the ONNX Runtime shared library cannot be used.
var ErrSharedLibrary = errors.New("onnxruntime shared library unavailable")

var envMu sync.Mutex

// InitializeEnvironment loads the ONNX Runtime shared library once per process. An empty
// libPath lets onnxruntime_go fall back to its platform default.
func InitializeEnvironment(libPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}

	if libPath != "" {
		if !xfs.Exists(libPath) {
			return fmt.Errorf("%w: %s does not exist", ErrSharedLibrary, libPath)
		}
		ort.SetSharedLibraryPath(libPath)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("%w: %w", ErrSharedLibrary, err)
	}

	slog.Info("ONNX Runtime initialized", "library", libPath)
	return nil
}

// DestroyEnvironment releases the ONNX Runtime environment if it was initialized.
func DestroyEnvironment() error {
	envMu.Lock()
	defer envMu.Unlock()

	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}
