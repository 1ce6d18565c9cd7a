package connection

import (
	"sync"
	"time"
)

type statKind int

const (
	statRead statKind = iota
	statWrite
	statCancelled
)

// Stats collects in-process statement statistics. It is safe for concurrent
// use.
type Stats struct {
	mu        sync.Mutex
	reads     int64
	writes    int64
	cancelled int64
	failures  int64
	elapsed   time.Duration
	lastError error
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Reads     int64
	Writes    int64
	Cancelled int64
	Failures  int64
	Elapsed   time.Duration
	LastError error
}

// NewStats creates empty statistics.
func NewStats() *Stats {
	return &Stats{}
}

func (s *Stats) record(kind statKind, elapsed time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch kind {
	case statRead:
		s.reads++
	case statWrite:
		s.writes++
	case statCancelled:
		s.cancelled++
	}
	s.elapsed += elapsed
	if err != nil {
		s.failures++
		s.lastError = err
	}
}

// Snapshot returns the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StatsSnapshot{
		Reads:     s.reads,
		Writes:    s.writes,
		Cancelled: s.cancelled,
		Failures:  s.failures,
		Elapsed:   s.elapsed,
		LastError: s.lastError,
	}
}

// Reset zeroes the counters.
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reads, s.writes, s.cancelled, s.failures = 0, 0, 0, 0
	s.elapsed = 0
	s.lastError = nil
}
