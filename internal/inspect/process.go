package inspect

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/prometheus/procfs"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/procfixture/internal/infrastructure/logging"
)

const stateZombie = "Z"

// Inspector reads process and descriptor information from a proc mount.
type Inspector struct {
	fs     procfs.FS
	mount  string
	uid    uint64
	logger *logging.Logger
}

// New returns an inspector over the default /proc mount.
func New(logger *logging.Logger) (*Inspector, error) {
	return NewWithMount(procfs.DefaultMountPoint, logger)
}

// NewWithMount returns an inspector over the proc filesystem at mount.
func NewWithMount(mount string, logger *logging.Logger) (*Inspector, error) {
	pfs, err := procfs.NewFS(mount)
	if err != nil {
		return nil, fmt.Errorf("open proc filesystem %s: %w", mount, err)
	}
	return &Inspector{
		fs:     pfs,
		mount:  mount,
		uid:    uint64(os.Getuid()),
		logger: logging.OrNop(logger).Named("inspect"),
	}, nil
}

// Process is a snapshot of one process.
type Process struct {
	PID     int    `json:"pid"`
	PPID    int    `json:"ppid"`
	Command string `json:"command"`
	State   string `json:"state"`

	proc  procfs.Proc
	mount string
}

// Zombie reports whether the process had terminated but was not yet
// reaped when it was looked up.
func (p Process) Zombie() bool {
	return p.State == stateZombie
}

func (p Process) String() string {
	return fmt.Sprintf("%q (pid %d, ppid %d)", p.Command, p.PID, p.PPID)
}

// Find resolves query to a process. A command name owned by the current
// user wins over a pid, and among several matches the lowest pid is used.
func (in *Inspector) Find(query string) (Process, error) {
	if pid, ok, err := in.byName(query); err != nil {
		return Process{}, err
	} else if ok {
		return in.Lookup(pid)
	}

	pid, err := strconv.Atoi(query)
	if err != nil || pid <= 0 {
		return Process{}, fmt.Errorf("%q: %w", query, ErrNotFound)
	}
	return in.Lookup(pid)
}

// Lookup returns the process with the given pid.
func (in *Inspector) Lookup(pid int) (Process, error) {
	proc, err := in.fs.Proc(pid)
	if err != nil {
		return Process{}, in.missing(pid, err)
	}

	stat, err := proc.Stat()
	if err != nil {
		return Process{}, in.missing(pid, err)
	}

	return Process{
		PID:     pid,
		PPID:    stat.PPID,
		Command: command(proc, stat),
		State:   stat.State,
		proc:    proc,
		mount:   in.mount,
	}, nil
}

// Children returns the direct children of pid, ordered by pid.
func (in *Inspector) Children(pid int) ([]Process, error) {
	procs, err := in.fs.AllProcs()
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	var children []Process
	for _, proc := range procs {
		stat, err := proc.Stat()
		if err != nil {
			// Exited since the listing
			continue
		}
		if stat.PPID != pid {
			continue
		}
		children = append(children, Process{
			PID:     proc.PID,
			PPID:    stat.PPID,
			Command: command(proc, stat),
			State:   stat.State,
			proc:    proc,
			mount:   in.mount,
		})
	}
	sort.Slice(children, func(i, j int) bool { return children[i].PID < children[j].PID })
	return children, nil
}

// byName finds the lowest pid whose command name is exactly name and whose
// real uid is ours.
func (in *Inspector) byName(name string) (int, bool, error) {
	procs, err := in.fs.AllProcs()
	if err != nil {
		return 0, false, fmt.Errorf("list processes: %w", err)
	}

	found := 0
	for _, proc := range procs {
		comm, err := proc.Comm()
		if err != nil || comm != name {
			continue
		}
		status, err := proc.NewStatus()
		if err != nil || status.UIDs[0] != in.uid {
			continue
		}
		if found == 0 || proc.PID < found {
			found = proc.PID
		}
	}
	if found != 0 {
		in.logger.Debug("Matched process by name", zap.String("name", name), zap.Int("pid", found))
	}
	return found, found != 0, nil
}

func (in *Inspector) missing(pid int, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("pid %d: %w", pid, ErrNotFound)
	}
	return fmt.Errorf("pid %d: %w", pid, err)
}

// command renders the command line the way ps does: the argument vector
// when there is one, otherwise the bracketed name.
func command(proc procfs.Proc, stat procfs.ProcStat) string {
	if args, err := proc.CmdLine(); err == nil && len(args) > 0 {
		return strings.Join(args, " ")
	}
	name := "[" + stat.Comm + "]"
	if stat.State == stateZombie {
		name += " <defunct>"
	}
	return name
}
