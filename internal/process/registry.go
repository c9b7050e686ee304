package process

import (
	"fmt"
	"sort"
	"sync"
)

// Main is the body of a spawned child. Its result is the exit code.
type Main func(c *Child) int

// Procedure is a registered child entry point.
type Procedure struct {
	name string
	main Main
}

// Name returns the registered name.
func (p *Procedure) Name() string { return p.name }

type procRegistry struct {
	sync.Mutex
	procs map[string]*Procedure
}

var registry = &procRegistry{procs: make(map[string]*Procedure)}

// Register adds a procedure that Spawn can run in a child. The child is a
// fresh execution of the same binary, so registration must happen during
// package initialization (a package-level var or init) to be visible to
// Dispatch. Closures do not carry state across: pass values as arguments.
func Register(name string, main Main) *Procedure {
	if name == "" || main == nil {
		panic("process: Register needs a name and a main function")
	}

	registry.Lock()
	defer registry.Unlock()

	if _, dup := registry.procs[name]; dup {
		panic(fmt.Sprintf("process: procedure %q registered twice", name))
	}
	p := &Procedure{name: name, main: main}
	registry.procs[name] = p
	return p
}

// Lookup returns the procedure registered under name.
func Lookup(name string) (*Procedure, bool) {
	registry.Lock()
	defer registry.Unlock()
	p, ok := registry.procs[name]
	return p, ok
}

// Procedures returns the registered names in sorted order.
func Procedures() []string {
	registry.Lock()
	defer registry.Unlock()
	names := make([]string, 0, len(registry.procs))
	for name := range registry.procs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
