package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrNoTextFound       = errors.New("no text found in document")
	ErrEmptyCorpus       = errors.New("no usable chunks found in document")
	ErrModelInvocation   = errors.New("model invocation failed")
	ErrCorpusMismatch    = errors.New("corpus vectors and chunks differ in length")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrIndexNotReady     = errors.New("document index is not ready")
)

// ModelError reports a failed call to an external model. Index is the chunk
// position for per-chunk operations and -1 otherwise.
type ModelError struct {
	Op    string
	Index int
	Err   error
}

func (e *ModelError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s chunk %d failed: %v", e.Op, e.Index, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

func (e *ModelError) Is(target error) bool { return target == ErrModelInvocation }

func modelError(op string, index int, err error) error {
	return &ModelError{Op: op, Index: index, Err: err}
}
