//go:build windows

package control

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
)

type systemSignaler struct{}

// Signal terminates pid regardless of mode.
func (systemSignaler) Signal(pid int32, _ Mode) error {
	handle, err := windows.OpenProcess(windows.PROCESS_TERMINATE, false, uint32(pid))
	if err != nil {
		return translate(pid, err)
	}
	defer windows.CloseHandle(handle)
	if err := windows.TerminateProcess(handle, 1); err != nil {
		return translate(pid, err)
	}
	return nil
}

func translate(pid int32, err error) error {
	switch {
	case errors.Is(err, windows.ERROR_INVALID_PARAMETER):
		return fmt.Errorf("%w: pid %d", ErrNotFound, pid)
	case errors.Is(err, windows.ERROR_ACCESS_DENIED):
		return fmt.Errorf("%w: pid %d", ErrPermissionDenied, pid)
	default:
		return fmt.Errorf("terminate pid %d: %w", pid, err)
	}
}
