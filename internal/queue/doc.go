// Package queue holds the queue data model shared by the fetcher, the poller,
// the notifier and the UI.
//
// # Snapshots
//
// A Snapshot is one ordered view of a queue as returned by a single poll.
// Entries are matched across snapshots by Entry.ID, which the portal client
// derives from the client id and attendance id. Positions are never stored:
// they are the 1-based index inside the snapshot and are recomputed on every
// poll.
//
// # Reconciliation
//
// Reconcile compares the previously held snapshot with a fresh one:
//
//	prev: [A(status=X) B(status=Y)]
//	next: [A(status=Z) B(status=Y) C]
//	→ Added   = [C]
//	→ Changed = [A: X→Z]
//	→ SizeChanged = true
//
// Added and Changed follow the order of the new snapshot, Removed follows the
// order of the old one. When there is no previous snapshot the result carries
// First=true and lists every entry as added; deciding to stay quiet on the
// first poll is the notifier's job.
package queue
