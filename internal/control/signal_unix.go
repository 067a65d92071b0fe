//go:build !windows

package control

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

type systemSignaler struct{}

func (systemSignaler) Signal(pid int32, mode Mode) error {
	sig := unix.SIGTERM
	if mode == Forced {
		sig = unix.SIGKILL
	}
	err := unix.Kill(int(pid), sig)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.ESRCH):
		return fmt.Errorf("%w: pid %d", ErrNotFound, pid)
	case errors.Is(err, unix.EPERM):
		return fmt.Errorf("%w: pid %d", ErrPermissionDenied, pid)
	default:
		return fmt.Errorf("signal %s pid %d: %w", unix.SignalName(sig), pid, err)
	}
}
