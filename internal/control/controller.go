package control

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// Signaler delivers a termination signal to a pid. Implementations translate
// operating system errors into ErrNotFound and ErrPermissionDenied where they
// apply.
type Signaler interface {
	Signal(pid int32, mode Mode) error
}

// Identity is what the operating system currently reports for a pid.
type Identity struct {
	Name      string
	StartTime time.Time
}

// Inspector looks up the current identity of a pid. It returns ErrNotFound
// when no such process exists.
type Inspector interface {
	Inspect(ctx context.Context, pid int32) (Identity, error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithSignaler replaces the operating system signaler.
func WithSignaler(s Signaler) Option {
	return func(c *Controller) {
		if s != nil {
			c.signaler = s
		}
	}
}

// WithInspector replaces the operating system identity lookup.
func WithInspector(i Inspector) Option {
	return func(c *Controller) {
		if i != nil {
			c.inspector = i
		}
	}
}

// WithProtected sets the names that are refused. A nil list keeps the defaults;
// an empty list disables protection.
func WithProtected(names []string) Option {
	return func(c *Controller) {
		if names != nil {
			c.protected = append([]string(nil), names...)
		}
	}
}

// Controller issues termination requests. It is safe for concurrent use.
type Controller struct {
	signaler  Signaler
	inspector Inspector
	protected []string
	self      int32
}

// New constructs a controller that signals real processes.
func New(opts ...Option) *Controller {
	c := &Controller{
		signaler:  systemSignaler{},
		inspector: gopsutilInspector{},
		protected: DefaultProtected(),
		self:      int32(os.Getpid()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Terminate asks the process identified by target to exit. The target's start
// time, when set, must match the live process; otherwise the pid has been
// reused and the request resolves to NotFound without sending anything.
func (c *Controller) Terminate(ctx context.Context, target Target, mode Mode) Result {
	res := Result{Target: target, Mode: mode}
	if err := ctx.Err(); err != nil {
		return res.fail(err)
	}
	if target.PID <= 0 {
		return res.fail(fmt.Errorf("%w: %d", ErrInvalidPID, target.PID))
	}
	if target.PID == c.self {
		return res.fail(fmt.Errorf("%w: refusing to signal self", ErrProtected))
	}

	identity, err := c.inspector.Inspect(ctx, target.PID)
	switch {
	case errors.Is(err, ErrNotFound):
		return res.fail(err)
	case err == nil:
		if !target.StartTime.IsZero() && !identity.StartTime.IsZero() && !identity.StartTime.Equal(target.StartTime) {
			return res.fail(fmt.Errorf("%w: pid %d was reused", ErrNotFound, target.PID))
		}
		if identity.Name != "" {
			res.Target.Name = identity.Name
		}
	}
	// Other inspection errors fall through: the signal itself reports whether
	// the process exists and whether we may touch it.

	if IsProtected(c.protected, res.Target.Name) {
		return res.fail(fmt.Errorf("%w: %s", ErrProtected, res.Target.Name))
	}

	if err := c.signaler.Signal(target.PID, mode); err != nil {
		return res.fail(err)
	}
	res.Outcome = Success
	return res
}

func (r Result) fail(err error) Result {
	r.Err = err
	r.Outcome = classify(err)
	return r
}
