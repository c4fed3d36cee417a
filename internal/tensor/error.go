package tensor

import "errors"

// Error definitions for the tensor package.
var (
	ErrShape = errors.New("tensor shape contract violated")
	ErrDType = errors.New("tensor dtype contract violated")
)
