package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/julioseixas/portalwatch/internal/queue"
)

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Queue               queue.Snapshot
	HasData             bool         // at least one fetch succeeded
	LastResult          queue.Result // diff that produced Queue
	LastUpdated         time.Time    // time of the last successful fetch
	LastAttempt         time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot. The zero value is
// usable and stamps updates with the wall clock.
type Store struct {
	mu       sync.RWMutex
	clock    clockwork.Clock
	snapshot Snapshot
}

// NewStore returns a Store that stamps updates with clock.
func NewStore(clock clockwork.Clock) *Store {
	return &Store{clock: clock}
}

func (s *Store) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}

// Update records the outcome of one poll. When err is non-nil the previous
// queue and LastUpdated are kept and only the failure is recorded.
func (s *Store) Update(snap *queue.Snapshot, res queue.Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.snapshot.LastAttempt = now
	if err != nil || snap == nil {
		if err == nil {
			err = fmt.Errorf("no snapshot")
		}
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Queue = snap.Clone()
	s.snapshot.LastResult = res
	s.snapshot.HasData = true
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = now
	s.snapshot.ConsecutiveFailures = 0
}

// Previous returns the held queue snapshot, or nil before the first success.
func (s *Store) Previous() *queue.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.snapshot.HasData {
		return nil
	}
	prev := s.snapshot.Queue.Clone()
	return &prev
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Queue = s.snapshot.Queue.Clone()
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}
