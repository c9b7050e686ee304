package process

import (
	"fmt"
	"syscall"
	"time"

	"github.com/GriffinCanCode/AgentOS/procfixture/internal/shared/id"
)

// State is the lifecycle position of a spawned child.
type State int

const (
	StateRunning State = iota
	StateZombie
	StateReaped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateZombie:
		return "zombie"
	case StateReaped:
		return "reaped"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name.
func (s *State) UnmarshalText(text []byte) error {
	for _, candidate := range []State{StateRunning, StateZombie, StateReaped} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown process state %q", text)
}

// WaitMode selects whether Wait suspends the caller.
type WaitMode int

const (
	Blocking WaitMode = iota
	NonBlocking
)

func (m WaitMode) String() string {
	if m == NonBlocking {
		return "non_blocking"
	}
	return "blocking"
}

// Handle identifies one spawned child. It is the only thing the parent
// receives from Spawn.
type Handle struct {
	PID       int        `json:"pid"`
	SpawnID   id.SpawnID `json:"spawn_id"`
	Procedure string     `json:"procedure"`
	StartedAt time.Time  `json:"started_at"`
}

func (h *Handle) String() string {
	return fmt.Sprintf("%s[%d]", h.Procedure, h.PID)
}

// ExitStatus is the result of Wait or Query.
//
// A non-blocking Wait on a live child returns State == StateRunning and no
// error. Signal is non-zero when the child was terminated by a signal, in
// which case Code is -1.
type ExitStatus struct {
	State  State          `json:"state"`
	Code   int            `json:"exit_code"`
	Signal syscall.Signal `json:"signal,omitempty"`
}

// Running reports the "still running" result of a non-blocking wait.
func (s ExitStatus) Running() bool { return s.State == StateRunning }

// Signaled reports whether the child was terminated by a signal.
func (s ExitStatus) Signaled() bool { return s.Signal != 0 }

func (s ExitStatus) String() string {
	switch {
	case s.State == StateRunning:
		return "running"
	case s.Signaled():
		return fmt.Sprintf("%s (signal %s)", s.State, s.Signal)
	default:
		return fmt.Sprintf("%s (exit %d)", s.State, s.Code)
	}
}
