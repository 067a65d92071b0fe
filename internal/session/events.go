package session

import (
	"sync"
	"time"

	"github.com/Paintersrp/prokill/internal/control"
)

// EventType identifies what changed in a session.
type EventType int

const (
	// EventSnapshot is published after a new snapshot replaced the old one.
	EventSnapshot EventType = iota
	// EventSampleError is published when a sampling attempt failed.
	EventSampleError
	// EventParams is published when the view parameters changed.
	EventParams
	// EventTermination is published after a termination request completed.
	EventTermination
	// EventStopped is published when the session returns to Idle.
	EventStopped
)

func (t EventType) String() string {
	switch t {
	case EventSnapshot:
		return "snapshot"
	case EventSampleError:
		return "sample_error"
	case EventParams:
		return "params"
	case EventTermination:
		return "termination"
	case EventStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Event notifies subscribers of a state change. Subscribers re-query the
// session for the new state; the event only carries what is not otherwise
// observable.
type Event struct {
	Type   EventType
	Time   time.Time
	Err    error
	Result *control.Result
}

type eventStream struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func newEventStream() *eventStream {
	return &eventStream{subs: make(map[chan Event]struct{})}
}

func (s *eventStream) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	release := func() {
		s.mu.Lock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, release
}

// Publish never blocks; slow subscribers miss events.
func (s *eventStream) Publish(evt Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}
