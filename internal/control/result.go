package control

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound indicates the target process no longer exists or its pid now
	// belongs to a different process.
	ErrNotFound = errors.New("process not found")
	// ErrPermissionDenied indicates the caller lacks the privilege to signal the
	// target.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrProtected indicates the target is on the protected list.
	ErrProtected = errors.New("process is protected")
	// ErrInvalidPID indicates a pid that can never name a single process.
	ErrInvalidPID = errors.New("invalid pid")
)

// Mode selects how a process is asked to exit.
type Mode int

const (
	Graceful Mode = iota
	Forced
)

func (m Mode) String() string {
	switch m {
	case Graceful:
		return "graceful"
	case Forced:
		return "forced"
	default:
		return "unknown"
	}
}

// Outcome classifies the result of a termination request.
type Outcome int

const (
	Success Outcome = iota
	NotFound
	PermissionDenied
	Protected
	OSError
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case NotFound:
		return "not_found"
	case PermissionDenied:
		return "permission_denied"
	case Protected:
		return "protected"
	case OSError:
		return "os_error"
	default:
		return "unknown"
	}
}

// MarshalText renders the outcome for JSON encoders.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Target identifies a process. A zero StartTime disables the identity check and
// matches whatever process currently owns PID.
type Target struct {
	PID       int32
	Name      string
	StartTime time.Time
}

// Result reports what happened to a single termination request.
type Result struct {
	Target  Target
	Mode    Mode
	Outcome Outcome
	Err     error
}

// Failed reports whether the outcome should be surfaced to the operator as an
// error. NotFound is benign: the process is already gone.
func (r Result) Failed() bool {
	return r.Outcome != Success && r.Outcome != NotFound
}

func (r Result) label() string {
	if r.Target.Name == "" {
		return fmt.Sprintf("PID %d", r.Target.PID)
	}
	return fmt.Sprintf("%s (PID %d)", r.Target.Name, r.Target.PID)
}

// Message renders a one line description suitable for a status bar.
func (r Result) Message() string {
	switch r.Outcome {
	case Success:
		if r.Mode == Forced {
			return "killed " + r.label()
		}
		return "asked " + r.label() + " to exit"
	case NotFound:
		return fmt.Sprintf("PID %d already exited", r.Target.PID)
	case PermissionDenied:
		return "permission denied: cannot signal " + r.label()
	case Protected:
		return r.label() + " is protected"
	default:
		return fmt.Sprintf("failed to signal %s: %v", r.label(), r.Err)
	}
}

// classify maps a signalling error onto an outcome.
func classify(err error) Outcome {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, ErrNotFound):
		return NotFound
	case errors.Is(err, ErrPermissionDenied):
		return PermissionDenied
	case errors.Is(err, ErrProtected):
		return Protected
	default:
		return OSError
	}
}
