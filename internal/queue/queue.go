package queue

import (
	"errors"
	"fmt"
	"time"
)

// ErrDuplicateEntry is returned when a snapshot would hold two entries with the
// same identity.
var ErrDuplicateEntry = errors.New("duplicate queue entry")

// Fields are the human-readable attributes shown for an entry. Only these are
// compared when deciding whether an entry changed between polls.
type Fields struct {
	Status         string
	StatusCode     string
	Arrival        string
	Scheduled      string
	Classification string
}

// Entry is one patient in a queue.
type Entry struct {
	ID      string // stable across polls
	OwnerID string // patient/client the entry belongs to
	Name    string
	Fields  Fields
}

// Snapshot is one fetched, ordered view of a queue.
type Snapshot struct {
	Entries    []Entry
	CapturedAt time.Time
}

// NewSnapshot builds a snapshot from entries in queue order.
func NewSnapshot(entries []Entry, capturedAt time.Time) (Snapshot, error) {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.ID]; ok {
			return Snapshot{}, fmt.Errorf("%w: %q", ErrDuplicateEntry, e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	return Snapshot{Entries: cloneEntries(entries), CapturedAt: capturedAt}, nil
}

// Len returns the number of entries.
func (s Snapshot) Len() int {
	return len(s.Entries)
}

// Position returns the 1-based position of id, or 0 when it is not queued.
func (s Snapshot) Position(id string) int {
	for i, e := range s.Entries {
		if e.ID == id {
			return i + 1
		}
	}
	return 0
}

// OwnedBy returns the first entry belonging to owner and its position.
func (s Snapshot) OwnedBy(owner string) (Entry, int, bool) {
	if owner == "" {
		return Entry{}, 0, false
	}
	for i, e := range s.Entries {
		if e.OwnerID == owner {
			return e, i + 1, true
		}
	}
	return Entry{}, 0, false
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{Entries: cloneEntries(s.Entries), CapturedAt: s.CapturedAt}
}

func cloneEntries(entries []Entry) []Entry {
	if len(entries) == 0 {
		return nil
	}
	dup := make([]Entry, len(entries))
	copy(dup, entries)
	return dup
}
