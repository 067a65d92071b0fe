// Package session owns the live process snapshot and the operator's view
// settings. It re-samples on a fixed interval, exposes the rendered view and
// routes termination requests to the controller.
//
// A session moves between three states. Idle until Start; Sampling while the
// timer runs with no sample in flight; Refreshing while a sample is in flight.
// Ticks that arrive while Refreshing are dropped. Out-of-band refreshes
// requested while Refreshing (after a termination, or by Refresh) collapse
// into a single follow-up sample.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Paintersrp/prokill/internal/control"
	"github.com/Paintersrp/prokill/internal/metrics"
	"github.com/Paintersrp/prokill/internal/sampler"
	"github.com/Paintersrp/prokill/internal/view"
)

const (
	DefaultInterval      = 2 * time.Second
	DefaultSampleTimeout = 5 * time.Second
)

// ErrAlreadyRunning is returned by Start on a session that is not Idle.
var ErrAlreadyRunning = errors.New("session already running")

// Sampler produces process snapshots.
type Sampler interface {
	Sample(ctx context.Context) (*sampler.Snapshot, error)
}

// Terminator delivers termination requests.
type Terminator interface {
	Terminate(ctx context.Context, target control.Target, mode control.Mode) control.Result
}

// State is the lifecycle state of a session.
type State int

const (
	Idle State = iota
	Sampling
	Refreshing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sampling:
		return "sampling"
	case Refreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// MarshalText renders the state for JSON encoders.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status summarises the session for status bars and the control API.
type Status struct {
	State       State         `json:"state"`
	Interval    time.Duration `json:"interval"`
	CapturedAt  time.Time     `json:"captured_at,omitempty"`
	Processes   int           `json:"processes"`
	Samples     uint64        `json:"samples"`
	Failures    uint64        `json:"failures"`
	LastError   string        `json:"last_error,omitempty"`
	LastErrorAt time.Time     `json:"last_error_at,omitempty"`
}

// Option configures a Session.
type Option func(*Session)

// WithLogger routes session logs to logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithInterval sets the re-sampling period.
func WithInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithSampleTimeout bounds a single sampling attempt.
func WithSampleTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.sampleTimeout = d
		}
	}
}

// WithParams sets the initial view parameters.
func WithParams(p view.Params) Option {
	return func(s *Session) {
		s.params = p
	}
}

// Session coordinates sampling, view state and termination. All methods are
// safe for concurrent use.
type Session struct {
	sampler       Sampler
	terminator    Terminator
	logger        *log.Logger
	interval      time.Duration
	sampleTimeout time.Duration

	snapshot atomic.Pointer[sampler.Snapshot]
	events   *eventStream
	wg       sync.WaitGroup

	mu         sync.Mutex
	params     view.Params
	running    bool
	loopCtx    context.Context
	cancel     context.CancelFunc
	refreshing bool
	pending    bool
	samples    uint64
	failures   uint64
	lastErr    string
	lastErrAt  time.Time
}

// New constructs an Idle session.
func New(smp Sampler, term Terminator, opts ...Option) *Session {
	s := &Session{
		sampler:       smp,
		terminator:    term,
		logger:        log.New(io.Discard),
		interval:      DefaultInterval,
		sampleTimeout: DefaultSampleTimeout,
		params:        view.DefaultParams(),
		events:        newEventStream(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start takes an initial sample and begins periodic re-sampling until ctx is
// cancelled or Stop is called. A nil ctx is treated as context.Background.
func (s *Session) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.loopCtx = loopCtx
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Debug("session started", "interval", s.interval)
	go s.run(loopCtx)
	return nil
}

// Stop cancels the timer and any in-flight sample. It does not wait for the
// sample to unwind; use Wait for that.
func (s *Session) Stop() {
	s.stop(nil)
}

// stop returns the session to Idle. A non-nil owner only stops the run it
// belongs to, so a loop unwinding after a restart leaves the new run alone.
func (s *Session) stop(owner context.Context) {
	s.mu.Lock()
	if !s.running || (owner != nil && owner != s.loopCtx) {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.pending = false
	s.cancel()
	s.mu.Unlock()

	s.logger.Debug("session stopped")
	s.events.Publish(Event{Type: EventStopped, Time: time.Now()})
}

// Wait blocks until every goroutine started by the session has returned.
func (s *Session) Wait() {
	s.wg.Wait()
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case !s.running:
		return Idle
	case s.refreshing:
		return Refreshing
	default:
		return Sampling
	}
}

// Status returns a summary of the session and its latest snapshot.
func (s *Session) Status() Status {
	snap := s.snapshot.Load()
	st := Status{
		State:      s.State(),
		Interval:   s.interval,
		CapturedAt: snap.CapturedAt(),
		Processes:  snap.Len(),
	}
	s.mu.Lock()
	st.Samples = s.samples
	st.Failures = s.failures
	st.LastError = s.lastErr
	st.LastErrorAt = s.lastErrAt
	s.mu.Unlock()
	return st
}

// Snapshot returns the current snapshot, or nil before the first sample.
func (s *Session) Snapshot() *sampler.Snapshot {
	return s.snapshot.Load()
}

// Visible renders the current snapshot with the current parameters.
func (s *Session) Visible() []sampler.Record {
	return view.Render(s.snapshot.Load(), s.Params())
}

// Params returns the current view parameters.
func (s *Session) Params() view.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// SetParams replaces the view parameters without resampling.
func (s *Session) SetParams(p view.Params) {
	s.updateParams(func(view.Params) view.Params { return p })
}

// UpdateParams applies fn to the current parameters atomically, so concurrent
// callers never overwrite each other's changes.
func (s *Session) UpdateParams(fn func(view.Params) view.Params) {
	s.updateParams(fn)
}

// SetSortKey selects a sort column, toggling direction when it is already active.
func (s *Session) SetSortKey(key view.SortKey) {
	s.updateParams(func(p view.Params) view.Params { return p.WithSortKey(key) })
}

// SetSearchText sets the search filter.
func (s *Session) SetSearchText(text string) {
	s.updateParams(func(p view.Params) view.Params {
		p.Search = text
		return p
	})
}

// SetShowAll switches between the top-N list and every process.
func (s *Session) SetShowAll(all bool) {
	s.updateParams(func(p view.Params) view.Params {
		p.ShowAll = all
		return p
	})
}

func (s *Session) updateParams(fn func(view.Params) view.Params) {
	s.mu.Lock()
	s.params = fn(s.params)
	s.mu.Unlock()
	s.events.Publish(Event{Type: EventParams, Time: time.Now()})
}

// Subscribe returns a channel of change notifications and a release function.
func (s *Session) Subscribe(buffer int) (<-chan Event, func()) {
	return s.events.Subscribe(buffer)
}

// Refresh requests an out-of-band sample. It reports false when the session is
// Idle.
func (s *Session) Refresh() bool {
	return s.requestRefresh(true)
}

// KillProcess asks pid to exit gracefully.
func (s *Session) KillProcess(ctx context.Context, pid int32) control.Result {
	return s.terminate(ctx, pid, control.Graceful)
}

// ForceKillProcess kills pid immediately.
func (s *Session) ForceKillProcess(ctx context.Context, pid int32) control.Result {
	return s.terminate(ctx, pid, control.Forced)
}

func (s *Session) terminate(ctx context.Context, pid int32, mode control.Mode) control.Result {
	var res control.Result
	rec, ok := s.snapshot.Load().Lookup(pid)
	if !ok {
		res = control.Result{
			Target:  control.Target{PID: pid},
			Mode:    mode,
			Outcome: control.NotFound,
			Err:     fmt.Errorf("%w: pid %d is not in the current snapshot", control.ErrNotFound, pid),
		}
	} else {
		target := control.Target{PID: rec.PID, Name: rec.Name, StartTime: rec.StartTime}
		res = s.terminator.Terminate(ctx, target, mode)
	}

	metrics.IncrementTermination(mode.String(), res.Outcome.String())
	if res.Failed() {
		s.logger.Warn("termination failed", "pid", pid, "mode", mode, "outcome", res.Outcome, "err", res.Err)
	} else {
		s.logger.Info("termination requested", "pid", pid, "name", res.Target.Name, "mode", mode, "outcome", res.Outcome)
		s.requestRefresh(true)
	}
	s.events.Publish(Event{Type: EventTermination, Time: time.Now(), Err: res.Err, Result: &res})
	return res
}

func (s *Session) run(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// The initial sample coalesces so a refresh left over from a previous run
	// cannot swallow it.
	s.requestRefresh(true)
	for {
		select {
		case <-ctx.Done():
			s.stop(ctx)
			return
		case <-ticker.C:
			s.requestRefresh(false)
		}
	}
}

// requestRefresh starts a sample unless one is in flight. When one is in
// flight a coalescing request marks a single follow-up; a tick is dropped.
func (s *Session) requestRefresh(coalesce bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	if s.refreshing {
		if coalesce {
			s.pending = true
		}
		return false
	}
	s.refreshing = true
	s.wg.Add(1)
	go s.refreshLoop(s.loopCtx)
	return true
}

func (s *Session) refreshLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		s.refreshOnce(ctx)

		s.mu.Lock()
		if s.pending && s.running {
			s.pending = false
			ctx = s.loopCtx
			s.mu.Unlock()
			continue
		}
		s.pending = false
		s.refreshing = false
		s.mu.Unlock()
		return
	}
}

func (s *Session) refreshOnce(ctx context.Context) {
	sampleCtx, cancel := context.WithTimeout(ctx, s.sampleTimeout)
	defer cancel()

	started := time.Now()
	snap, err := s.sampler.Sample(sampleCtx)
	elapsed := time.Since(started)
	if ctx.Err() != nil {
		// Stopped while sampling; the result is discarded.
		return
	}
	metrics.ObserveSample(elapsed, snap.Len(), err)

	if err != nil {
		now := time.Now()
		s.mu.Lock()
		s.failures++
		s.lastErr = err.Error()
		s.lastErrAt = now
		s.mu.Unlock()
		s.logger.Warn("sample failed", "err", err, "elapsed", elapsed)
		s.events.Publish(Event{Type: EventSampleError, Time: now, Err: err})
		return
	}

	s.snapshot.Store(snap)
	s.mu.Lock()
	s.samples++
	s.lastErr = ""
	s.mu.Unlock()
	s.logger.Debug("sampled processes", "count", snap.Len(), "elapsed", elapsed)
	s.events.Publish(Event{Type: EventSnapshot, Time: snap.CapturedAt()})
}
