package process

import "errors"

var (
	// ErrSpawnFailure means no child was created and no Handle exists.
	ErrSpawnFailure = errors.New("spawn failed")
	// ErrNoSuchProcess means the handle was already reaped, or was never
	// spawned through this reaper.
	ErrNoSuchProcess = errors.New("no such process")
	// ErrNotChild is returned by Dispatch in a process that was not started
	// by a Spawner.
	ErrNotChild = errors.New("not a spawned child process")
	// ErrNotRegistered means the requested procedure is unknown to this binary.
	ErrNotRegistered = errors.New("procedure not registered")
)

// Exit codes used by the child side of Dispatch.
const (
	// ExitCodeOutOfRange replaces procedure results outside [0, 255].
	ExitCodeOutOfRange = 255
	// ExitDispatchFailure is used when the child cannot find or set up
	// its procedure.
	ExitDispatchFailure = 125
)
