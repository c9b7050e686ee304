package descriptor

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/GriffinCanCode/AgentOS/procfixture/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/procfixture/internal/infrastructure/monitoring"
)

// Set owns pipe handles in the current process and tracks whether each one
// is still open.
//
// The mutex only guards bookkeeping. A handle must not be closed while
// another goroutine is blocked reading or writing it: the number could be
// reused by the kernel underneath the blocked call.
type Set struct {
	mu     sync.Mutex
	open   map[Handle]bool // false once closed
	pipes  []Pipe
	logger *logging.Logger
	metric *monitoring.Metrics
}

// NewSet creates an empty descriptor set.
func NewSet(logger *logging.Logger) *Set {
	return &Set{
		open:   make(map[Handle]bool),
		logger: logging.OrNop(logger).Named("descriptor"),
	}
}

// WithMetrics attaches a metrics collector.
func (s *Set) WithMetrics(metrics *monitoring.Metrics) *Set {
	s.metric = metrics
	return s
}

// CreatePipe allocates a linked read/write pair. Both ends are
// close-on-exec; only a Spawn passes them on.
func (s *Set) CreatePipe() (Pipe, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC); err != nil {
		if errors.Is(err, unix.EMFILE) || errors.Is(err, unix.ENFILE) {
			err = fmt.Errorf("%w: %v", ErrResourceExhausted, err)
		}
		s.metric.RecordDescriptorError("pipe", kind(err))
		return Pipe{}, &HandleError{Op: "pipe", Handle: -1, Err: err}
	}

	p := Pipe{Read: Handle(fds[0]), Write: Handle(fds[1])}

	s.mu.Lock()
	s.open[p.Read] = true
	s.open[p.Write] = true
	s.pipes = append(s.pipes, p)
	s.mu.Unlock()

	s.metric.RecordPipe()
	s.logger.Debug("Created pipe", zap.Int("read", int(p.Read)), zap.Int("write", int(p.Write)))
	return p, nil
}

// Redirect duplicates h onto slot. h stays open and must still be closed
// explicitly. A slot whose number is another open handle of the set is
// refused with ErrInvalidHandle; that handle must be closed first.
func (s *Set) Redirect(h Handle, slot Slot) error {
	if !slot.Valid() {
		return &HandleError{Op: "redirect", Handle: h, Err: fmt.Errorf("invalid slot %d", int(slot))}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open[h] {
		return s.fail("redirect", h, ErrInvalidHandle)
	}
	// dup3 would silently close a handle we still own at the slot number
	if Handle(slot) != h && s.open[Handle(slot)] {
		return s.fail("redirect", h, fmt.Errorf("%w: slot %s is held by open fd %d", ErrInvalidHandle, slot, int(slot)))
	}

	var err error
	if int(h) == int(slot) {
		// dup3 rejects equal descriptors; the handle already sits on the
		// slot, it only has to survive exec.
		_, err = unix.FcntlInt(uintptr(h), unix.F_SETFD, 0)
	} else {
		err = unix.Dup3(int(h), int(slot), 0)
	}
	if err != nil {
		return s.fail("redirect", h, err)
	}

	s.logger.Debug("Redirected descriptor", zap.Int("fd", int(h)), zap.Stringer("slot", slot))
	return nil
}

// Close closes h. Closing a handle twice is reported, never ignored.
func (s *Set) Close(h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	isOpen, known := s.open[h]
	switch {
	case !known:
		return s.fail("close", h, ErrInvalidHandle)
	case !isOpen:
		return s.fail("close", h, ErrDoubleClose)
	}

	// The handle is dead after close(2) even when it reports an error
	s.open[h] = false
	s.metric.RecordDescriptorClosed()

	if err := unix.Close(int(h)); err != nil {
		return s.fail("close", h, err)
	}

	s.logger.Debug("Closed descriptor", zap.Int("fd", int(h)))
	return nil
}

// Read reads from h. A zero-byte read is end-of-stream and returns io.EOF.
func (s *Set) Read(h Handle, p []byte) (int, error) {
	if err := s.check("read", h); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}

	for {
		n, err := unix.Read(int(h), p)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, &HandleError{Op: "read", Handle: h, Err: err}
		}
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	}
}

// Write writes all of p to h.
func (s *Set) Write(h Handle, p []byte) (int, error) {
	if err := s.check("write", h); err != nil {
		return 0, err
	}

	written := 0
	for written < len(p) {
		n, err := unix.Write(int(h), p[written:])
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return written, &HandleError{Op: "write", Handle: h, Err: err}
		}
		written += n
	}
	return written, nil
}

// Reader returns an io.Reader over h.
func (s *Set) Reader(h Handle) io.Reader {
	return handleIO{set: s, h: h}
}

// Writer returns an io.Writer over h.
func (s *Set) Writer(h Handle) io.Writer {
	return handleIO{set: s, h: h}
}

// IsOpen reports whether h is owned by the set and still open.
func (s *Set) IsOpen(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open[h]
}

// Open returns the open handles in ascending order.
func (s *Set) Open() []Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openLocked()
}

// Pipes returns every pipe created by or restored into the set, in
// creation order, whether or not its ends are still open.
func (s *Set) Pipes() []Pipe {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Pipe(nil), s.pipes...)
}

// Snapshot captures the pipes and open handles for a spawned child.
func (s *Set) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Pipes: append([]Pipe(nil), s.pipes...),
		Open:  s.openLocked(),
	}
}

// Restore rebuilds a Set in a spawned child. Every handle listed as open
// must be a live descriptor in this process; handles closed in the parent
// before the spawn are recorded as closed.
func Restore(snap Snapshot, logger *logging.Logger) (*Set, error) {
	s := NewSet(logger)
	for _, p := range snap.Pipes {
		s.open[p.Read] = false
		s.open[p.Write] = false
	}
	s.pipes = append(s.pipes, snap.Pipes...)

	for _, h := range snap.Open {
		if _, err := unix.FcntlInt(uintptr(h), unix.F_SETFD, unix.FD_CLOEXEC); err != nil {
			return nil, &HandleError{Op: "restore", Handle: h, Err: fmt.Errorf("%w: %v", ErrInvalidHandle, err)}
		}
		s.open[h] = true
	}
	return s, nil
}

func (s *Set) openLocked() []Handle {
	handles := make([]Handle, 0, len(s.open))
	for h, isOpen := range s.open {
		if isOpen {
			handles = append(handles, h)
		}
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	return handles
}

func (s *Set) check(op string, h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open[h] {
		return s.fail(op, h, ErrInvalidHandle)
	}
	return nil
}

// fail wraps err, counts it, and logs protocol defects loudly.
func (s *Set) fail(op string, h Handle, err error) error {
	k := kind(err)
	s.metric.RecordDescriptorError(op, k)
	if k == "double_close" || k == "invalid_handle" {
		s.logger.Warn("Descriptor protocol error", zap.String("op", op), zap.Int("fd", int(h)), zap.Error(err))
	}
	return &HandleError{Op: op, Handle: h, Err: err}
}

type handleIO struct {
	set *Set
	h   Handle
}

func (r handleIO) Read(p []byte) (int, error)  { return r.set.Read(r.h, p) }
func (r handleIO) Write(p []byte) (int, error) { return r.set.Write(r.h, p) }
