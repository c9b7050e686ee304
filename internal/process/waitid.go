package process

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// si_code values for SIGCHLD
const (
	cldExited = 1
	cldKilled = 2
	cldDumped = 3
)

// peek looks at a terminated child without collecting it
// (waitid with WNOWAIT). exited is false while the child is still running.
func peek(pid int) (status ExitStatus, exited bool, err error) {
	var info unix.Siginfo
	for {
		err = unix.Waitid(unix.P_PID, pid, &info, unix.WEXITED|unix.WNOHANG|unix.WNOWAIT, nil)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		return ExitStatus{}, false, err
	}

	childPID, code, value := sigchldFields(&info)
	if childPID == 0 {
		return ExitStatus{}, false, nil
	}

	switch code {
	case cldExited:
		return ExitStatus{Code: int(value)}, true, nil
	case cldKilled, cldDumped:
		return ExitStatus{Code: -1, Signal: syscall.Signal(value)}, true, nil
	default:
		// WEXITED only reports terminations
		return ExitStatus{Code: int(value)}, true, nil
	}
}

// sigchldFields reads si_pid and si_status out of the siginfo union, which
// unix.Siginfo leaves opaque. The union starts after three int32 fields,
// aligned to the word size.
func sigchldFields(info *unix.Siginfo) (pid int32, code int32, status int32) {
	off := uintptr(12)
	if unsafe.Sizeof(uintptr(0)) == 8 {
		off = 16
	}
	base := unsafe.Pointer(info)
	pid = *(*int32)(unsafe.Add(base, off))
	status = *(*int32)(unsafe.Add(base, off+8))
	return pid, info.Code, status
}
