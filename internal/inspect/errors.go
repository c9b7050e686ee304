package inspect

import "errors"

var (
	// ErrNotFound means no process matched the query.
	ErrNotFound = errors.New("process not found")

	// ErrUnavailable means the process exists but its descriptor table
	// cannot be read, typically because it is a zombie.
	ErrUnavailable = errors.New("descriptor information unavailable")

	// ErrBadDescriptor means the process has no such descriptor.
	ErrBadDescriptor = errors.New("no such descriptor")
)
