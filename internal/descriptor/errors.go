package descriptor

import (
	"errors"
	"fmt"
)

var (
	// ErrResourceExhausted means the descriptor table (per-process or
	// system-wide) has no room for another pipe. Callers may retry later.
	ErrResourceExhausted = errors.New("descriptor table exhausted")
	// ErrInvalidHandle means the handle is closed or was never owned by the set.
	ErrInvalidHandle = errors.New("invalid descriptor handle")
	// ErrDoubleClose means the handle was already closed.
	ErrDoubleClose = errors.New("descriptor already closed")
)

// HandleError records a failed operation on a handle.
type HandleError struct {
	Op     string
	Handle Handle
	Err    error
}

func (e *HandleError) Error() string {
	return fmt.Sprintf("%s fd %d: %v", e.Op, e.Handle, e.Err)
}

func (e *HandleError) Unwrap() error { return e.Err }

// kind is the metric label for a protocol error.
func kind(err error) string {
	switch {
	case errors.Is(err, ErrDoubleClose):
		return "double_close"
	case errors.Is(err, ErrInvalidHandle):
		return "invalid_handle"
	case errors.Is(err, ErrResourceExhausted):
		return "resource_exhausted"
	default:
		return "os"
	}
}
