package inspect

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Access flags from fcntl.h, as they appear in fdinfo.
const (
	oWronly = 0o1
	oRdwr   = 0o2
)

// Access is the mode an open file was opened with.
type Access int

const (
	Read Access = iota
	Write
	ReadWrite
)

func (a Access) String() string {
	switch a {
	case Read:
		return "read"
	case Write:
		return "write"
	case ReadWrite:
		return "read/write"
	default:
		return "unknown"
	}
}

// MarshalText renders the access mode by name.
func (a Access) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// OpenFile describes the open file behind one descriptor.
type OpenFile struct {
	FD     int    `json:"fd"`
	Name   string `json:"name"`
	Cursor int64  `json:"cursor"`
	Access Access `json:"access"`
}

// FDs lists the process's descriptor numbers in ascending order. Zombies
// have already released their table and fail with ErrUnavailable.
func (p Process) FDs() ([]int, error) {
	if p.Zombie() {
		return nil, fmt.Errorf("pid %d is a zombie: %w", p.PID, ErrUnavailable)
	}

	raw, err := p.proc.FileDescriptors()
	if err != nil {
		return nil, p.unavailable(err)
	}

	fds := make([]int, len(raw))
	for i, fd := range raw {
		fds[i] = int(fd)
	}
	sort.Ints(fds)
	return fds, nil
}

// OpenFiles describes every descriptor of the process. Descriptors closed
// while the table is being read are left out.
func (p Process) OpenFiles() ([]OpenFile, error) {
	fds, err := p.FDs()
	if err != nil {
		return nil, err
	}

	files := make([]OpenFile, 0, len(fds))
	for _, fd := range fds {
		f, err := p.OpenFile(fd)
		if errors.Is(err, ErrBadDescriptor) {
			continue
		}
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// OpenFile describes a single descriptor.
func (p Process) OpenFile(fd int) (OpenFile, error) {
	if p.Zombie() {
		return OpenFile{}, fmt.Errorf("pid %d is a zombie: %w", p.PID, ErrUnavailable)
	}

	target, err := os.Readlink(filepath.Join(p.mount, strconv.Itoa(p.PID), "fd", strconv.Itoa(fd)))
	if err != nil {
		return OpenFile{}, p.badDescriptor(fd, err)
	}

	info, err := p.proc.FDInfo(strconv.Itoa(fd))
	if err != nil {
		return OpenFile{}, p.badDescriptor(fd, err)
	}

	cursor, err := strconv.ParseInt(info.Pos, 10, 64)
	if err != nil {
		return OpenFile{}, fmt.Errorf("pid %d fd %d: bad pos %q", p.PID, fd, info.Pos)
	}
	access, err := parseAccess(info.Flags)
	if err != nil {
		return OpenFile{}, fmt.Errorf("pid %d fd %d: %w", p.PID, fd, err)
	}

	return OpenFile{
		FD:     fd,
		Name:   pathToName(target),
		Cursor: cursor,
		Access: access,
	}, nil
}

func (p Process) unavailable(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("pid %d: %w", p.PID, ErrUnavailable)
	}
	return fmt.Errorf("pid %d: %w", p.PID, err)
}

func (p Process) badDescriptor(fd int, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("pid %d fd %d: %w", p.PID, fd, ErrBadDescriptor)
	}
	return fmt.Errorf("pid %d fd %d: %w", p.PID, fd, err)
}

// parseAccess reads the access mode out of the octal fdinfo flags field.
func parseAccess(flags string) (Access, error) {
	v, err := strconv.ParseUint(flags, 8, 64)
	if err != nil {
		return Read, fmt.Errorf("bad flags %q", flags)
	}
	switch {
	case v&oWronly != 0:
		return Write, nil
	case v&oRdwr != 0:
		return ReadWrite, nil
	default:
		return Read, nil
	}
}

// pathToName shortens link targets: terminals become <terminal> and pipes
// <pipe #N>. Anything else is returned as is.
func pathToName(path string) string {
	switch {
	case strings.HasPrefix(path, "/dev/pts/"):
		return "<terminal>"
	case strings.HasPrefix(path, "pipe:[") && strings.HasSuffix(path, "]"):
		return "<pipe #" + path[len("pipe:["):len(path)-1] + ">"
	default:
		return path
	}
}
