// Package state holds the latest queue snapshot shared between the poller and
// the UI.
//
// # Roles
//
//	Poller goroutine                 UI (Bubble Tea tick)
//	┌──────────────────┐            ┌───────────────────┐
//	│ Previous()       │            │                   │
//	│ Reconcile/Notify │            │                   │
//	│ Update(...)      │───RWMutex─→│ Snapshot()        │
//	└──────────────────┘            └───────────────────┘
//
// The poller is the only writer. Readers get deep copies, so neither side can
// mutate what the other is looking at.
//
// # Update Semantics
//
//	// Success: replace the queue, stamp LastUpdated, reset failures.
//	store.Update(&snap, result, nil)
//
//	// Failure: keep queue and LastUpdated, record the error.
//	store.Update(nil, queue.Result{}, err)
//
// A failed poll therefore leaves the UI showing the last good queue with an
// old "last updated" time, while a successful poll that returned nobody
// replaces the queue with an empty one. HasData separates "nobody in queue"
// from "never fetched". LastAttempt moves on every poll so the header can show
// when a retry last happened.
//
// The zero Store is ready to use.
package state
