package queue

// Change describes an entry present in both snapshots whose status fields or
// position moved.
type Change struct {
	ID               string
	OwnerID          string
	Previous         Fields
	Next             Fields
	PreviousPosition int
	Position         int
}

// StatusChanged reports whether the status description or code differs.
// Arrival, scheduled time and classification edits do not count.
func (c Change) StatusChanged() bool {
	return c.Previous.Status != c.Next.Status || c.Previous.StatusCode != c.Next.StatusCode
}

// PositionChanged reports whether the entry moved in the queue.
func (c Change) PositionChanged() bool {
	return c.PreviousPosition != c.Position
}

// Result is the diff between two consecutive snapshots.
type Result struct {
	First       bool // no previous snapshot existed
	Added       []Entry
	Removed     []Entry
	Changed     []Change
	SizeChanged bool
}

// Empty reports whether nothing moved.
func (r Result) Empty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Changed) == 0 && !r.SizeChanged
}

// Reconcile diffs next against prev. A nil prev marks the first poll: every
// entry is reported as added and the result is flagged First so that callers
// can keep quiet about it.
func Reconcile(prev *Snapshot, next Snapshot) Result {
	if prev == nil {
		return Result{First: true, Added: cloneEntries(next.Entries)}
	}

	before := make(map[string]int, len(prev.Entries))
	for i, e := range prev.Entries {
		before[e.ID] = i
	}

	var res Result
	present := make(map[string]struct{}, len(next.Entries))
	for i, e := range next.Entries {
		present[e.ID] = struct{}{}
		j, ok := before[e.ID]
		if !ok {
			res.Added = append(res.Added, e)
			continue
		}
		old := prev.Entries[j]
		if old.Fields != e.Fields || i != j {
			res.Changed = append(res.Changed, Change{
				ID:               e.ID,
				OwnerID:          e.OwnerID,
				Previous:         old.Fields,
				Next:             e.Fields,
				PreviousPosition: j + 1,
				Position:         i + 1,
			})
		}
	}
	for _, e := range prev.Entries {
		if _, ok := present[e.ID]; !ok {
			res.Removed = append(res.Removed, e)
		}
	}
	res.SizeChanged = len(next.Entries) != len(prev.Entries)
	return res
}
