package process

import (
	"fmt"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/procfixture/internal/descriptor"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/infrastructure/logging"
)

// Environment variables carrying the spawn request into the child.
const (
	EntryPointEnv  = "PROCFIXTURE_ENTRY_POINT"
	DescriptorsEnv = "PROCFIXTURE_DESCRIPTORS"
)

// Child is what a procedure sees when it runs in the spawned process.
type Child struct {
	// Name is the registered procedure name.
	Name string
	// Args are the arguments given to Spawn.
	Args []string
	// Descriptors holds every handle that was open in the parent at spawn
	// time, under the same numbers.
	Descriptors *descriptor.Set
	Logger      *logging.Logger
}

// Stdin returns the file on the input slot.
func (c *Child) Stdin() *os.File { return os.Stdin }

// Stdout returns the file on the output slot.
func (c *Child) Stdout() *os.File { return os.Stdout }

// Stderr returns the file on the error slot.
func (c *Child) Stderr() *os.File { return os.Stderr }

// IsChildProcess reports whether this process was started by a Spawner.
func IsChildProcess() bool {
	return os.Getenv(EntryPointEnv) != ""
}

// Dispatch runs the procedure requested by the parent and returns its exit
// code. It fails with ErrNotChild outside a spawned process.
func Dispatch() (int, error) {
	name := os.Getenv(EntryPointEnv)
	if name == "" {
		return 0, ErrNotChild
	}
	encoded := os.Getenv(DescriptorsEnv)

	// Grandchildren get their own request from Spawn
	os.Unsetenv(EntryPointEnv)
	os.Unsetenv(DescriptorsEnv)

	cfg := config.LoadOrDefault()
	logger := logging.FromEnv(cfg.Logging.Level, cfg.Logging.Development).
		Named("child").
		With(zap.String("procedure", name), zap.Int("pid", os.Getpid()))
	defer logger.Sync()

	p, ok := Lookup(name)
	if !ok {
		return ExitDispatchFailure, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}

	var snap descriptor.Snapshot
	if encoded != "" {
		if err := sonic.UnmarshalString(encoded, &snap); err != nil {
			return ExitDispatchFailure, fmt.Errorf("decode descriptor snapshot: %w", err)
		}
	}
	set, err := descriptor.Restore(snap, logger)
	if err != nil {
		return ExitDispatchFailure, fmt.Errorf("restore descriptors: %w", err)
	}

	c := &Child{
		Name:        name,
		Args:        os.Args[1:],
		Descriptors: set,
		Logger:      logger,
	}
	logger.Debug("Running procedure", zap.Strings("args", c.Args))

	return normalizeExit(p.main(c), logger), nil
}

// DispatchAndExit is the child entry hook. Call it first thing in main (or
// TestMain): in a spawned child it runs the procedure and exits with its
// code; in any other process it returns immediately.
//
//	func main() {
//		process.DispatchAndExit()
//		// parent code...
//	}
func DispatchAndExit() {
	if !IsChildProcess() {
		return
	}
	code, err := Dispatch()
	if err != nil {
		fmt.Fprintf(os.Stderr, "procfixture: %v\n", err)
	}
	os.Exit(code)
}

// normalizeExit keeps codes in [0, 255] and replaces anything else with
// ExitCodeOutOfRange, saying so on stderr.
func normalizeExit(code int, logger *logging.Logger) int {
	if code >= 0 && code <= 255 {
		return code
	}
	logger.Warn("Exit code out of range, using replacement",
		zap.Int("code", code),
		zap.Int("replacement", ExitCodeOutOfRange),
	)
	return ExitCodeOutOfRange
}

// childEnv returns the parent's environment without any spawn request of
// its own, plus the request for this spawn.
func childEnv(name, encoded string) []string {
	parent := os.Environ()
	env := make([]string, 0, len(parent)+2)
	for _, kv := range parent {
		if strings.HasPrefix(kv, EntryPointEnv+"=") || strings.HasPrefix(kv, DescriptorsEnv+"=") {
			continue
		}
		env = append(env, kv)
	}
	return append(env, EntryPointEnv+"="+name, DescriptorsEnv+"="+encoded)
}
