package backend

import "errors"

// Error definitions for the backend package.
var (
	ErrNotFound          = errors.New("backend not found in registry")
	ErrAlreadyRegistered = errors.New("backend is already registered in the registry")
	ErrInference         = errors.New("inference failed")
	ErrLoad              = errors.New("failed to load model")
)
