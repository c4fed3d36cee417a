package tensor

import "fmt"

// InputSpec describes the tensor a model accepts on its audio input.
type InputSpec struct {
	Name  string `json:"name"`
	DType DType  `json:"dtype"`
	Rank  int    `json:"rank"`
}

// Check reports whether t can be fed to an input described by s.
func (s InputSpec) Check(t *Tensor) error {
	if t.Rank() != s.Rank {
		return fmt.Errorf("%w: input %q expects rank %d, got %s", ErrShape, s.Name, s.Rank, t)
	}
	if t.DType != s.DType {
		return fmt.Errorf("%w: input %q expects %s, got %s", ErrDType, s.Name, s.DType, t)
	}
	return t.Validate()
}
