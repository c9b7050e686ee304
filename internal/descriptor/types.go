package descriptor

import "fmt"

// Handle is a descriptor number in the current process.
type Handle int

// Slot is a standard stream index a handle can be redirected onto.
type Slot int

const (
	Input  Slot = 0
	Output Slot = 1
	Error  Slot = 2
)

func (s Slot) String() string {
	switch s {
	case Input:
		return "input"
	case Output:
		return "output"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("slot(%d)", int(s))
	}
}

// Valid reports whether s is one of the three standard slots.
func (s Slot) Valid() bool {
	return s >= Input && s <= Error
}

// Pipe is the linked pair returned by CreatePipe. Bytes written to Write
// come out of Read.
type Pipe struct {
	Read  Handle `json:"read"`
	Write Handle `json:"write"`
}

// Snapshot is the bookkeeping a spawned child needs to rebuild its Set.
// Handles keep their numbers across the spawn.
type Snapshot struct {
	Pipes []Pipe   `json:"pipes"`
	Open  []Handle `json:"open"`
}
