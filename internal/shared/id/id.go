// Package id provides ULID generation for spawn identifiers.
//
// A pid is only unique while the child is unreaped; the kernel recycles it
// afterwards. Every spawn therefore also gets a ULID so logs and the
// collaborator API can tell two children with the same pid apart.
//
// Design Principles:
//   - K-sortable: spawn order is visible from the ID alone
//   - Debuggable: prefixes make logs readable (spawn_*, req_*)
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SpawnID identifies one spawn of a child process
type SpawnID string

// RequestID identifies one API request
type RequestID string

// Prefixes tag IDs in logs
const (
	SpawnPrefix   = "spawn"
	RequestPrefix = "req"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator
func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source
// Useful for testing with deterministic entropy
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewSpawnID generates a new spawn ID
func NewSpawnID() SpawnID {
	return SpawnID(Default().GenerateWithPrefix(SpawnPrefix))
}

func (id SpawnID) String() string { return string(id) }

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// Timestamp extracts the creation time of a spawn ID
func (id SpawnID) Timestamp() (time.Time, error) {
	raw, ok := strings.CutPrefix(string(id), SpawnPrefix+"_")
	if !ok {
		return time.Time{}, fmt.Errorf("not a spawn id: %q", id)
	}
	parsed, err := ulid.Parse(raw)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
