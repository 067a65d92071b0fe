package sampler

import "time"

// Record describes a single process as observed at capture time. Records are
// values and are never modified once a snapshot has been built.
type Record struct {
	PID         int32     `json:"pid"`
	Name        string    `json:"name"`
	CPUPercent  float64   `json:"cpu_percent"`
	MemoryBytes uint64    `json:"memory_bytes"`
	Status      string    `json:"status,omitempty"`
	StartTime   time.Time `json:"start_time,omitempty"`
}

// Snapshot is an immutable capture of every visible process at one instant.
type Snapshot struct {
	capturedAt time.Time
	records    []Record
	index      map[int32]int
}

// NewSnapshot builds a snapshot from the supplied records. The slice is copied so
// later changes by the caller are not observed. When the same pid appears more
// than once only the first record is kept.
func NewSnapshot(capturedAt time.Time, records []Record) *Snapshot {
	snap := &Snapshot{
		capturedAt: capturedAt,
		records:    make([]Record, 0, len(records)),
		index:      make(map[int32]int, len(records)),
	}
	for _, rec := range records {
		if _, dup := snap.index[rec.PID]; dup {
			continue
		}
		snap.index[rec.PID] = len(snap.records)
		snap.records = append(snap.records, rec)
	}
	return snap
}

// CapturedAt reports when the snapshot was taken.
func (s *Snapshot) CapturedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.capturedAt
}

// Len returns the number of processes in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// Records returns a copy of the captured records in capture order.
func (s *Snapshot) Records() []Record {
	if s == nil {
		return nil
	}
	return append([]Record(nil), s.records...)
}

// Lookup returns the record for pid, if present.
func (s *Snapshot) Lookup(pid int32) (Record, bool) {
	if s == nil {
		return Record{}, false
	}
	idx, ok := s.index[pid]
	if !ok {
		return Record{}, false
	}
	return s.records[idx], true
}
