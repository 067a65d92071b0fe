package sampler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrEnumerate is returned when the process table cannot be listed at all.
var ErrEnumerate = errors.New("enumerate processes")

// Observation is the raw per-process reading produced by a Source.
type Observation struct {
	PID        int32
	Name       string
	Status     string
	CPUSeconds float64
	RSS        uint64
	StartTime  time.Time
}

// Source enumerates the processes visible to the caller. Implementations skip
// processes whose metrics cannot be read and only return an error when the
// table itself is unavailable.
type Source interface {
	Observe(ctx context.Context) ([]Observation, error)
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithClock overrides the wall clock used to timestamp samples.
func WithClock(now func() time.Time) Option {
	return func(s *Sampler) {
		if now != nil {
			s.now = now
		}
	}
}

type baseline struct {
	cpuSeconds float64
	startTime  time.Time
	at         time.Time
}

// Sampler turns successive Source observations into snapshots with
// instantaneous CPU utilisation.
type Sampler struct {
	source Source
	now    func() time.Time

	mu   sync.Mutex
	prev map[int32]baseline
}

// New constructs a Sampler reading from source.
func New(source Source, opts ...Option) *Sampler {
	s := &Sampler{
		source: source,
		now:    time.Now,
		prev:   make(map[int32]baseline),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sample reads the process table and returns a complete snapshot. On error no
// state is retained from the failed attempt.
func (s *Sampler) Sample(ctx context.Context) (*Snapshot, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	observed, err := s.source.Observe(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEnumerate, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEnumerate, err)
	}

	now := s.now()
	next := make(map[int32]baseline, len(observed))
	records := make([]Record, 0, len(observed))
	for _, obs := range observed {
		if _, dup := next[obs.PID]; dup {
			continue
		}
		next[obs.PID] = baseline{cpuSeconds: obs.CPUSeconds, startTime: obs.StartTime, at: now}
		records = append(records, Record{
			PID:         obs.PID,
			Name:        obs.Name,
			CPUPercent:  s.cpuPercent(obs, now),
			MemoryBytes: obs.RSS,
			Status:      obs.Status,
			StartTime:   obs.StartTime,
		})
	}
	s.prev = next

	return NewSnapshot(now, records), nil
}

func (s *Sampler) cpuPercent(obs Observation, now time.Time) float64 {
	base, ok := s.prev[obs.PID]
	if !ok || !base.startTime.Equal(obs.StartTime) {
		return 0
	}
	elapsed := now.Sub(base.at).Seconds()
	if elapsed <= 0 {
		return 0
	}
	delta := obs.CPUSeconds - base.cpuSeconds
	if delta <= 0 {
		return 0
	}
	return delta / elapsed * 100
}
