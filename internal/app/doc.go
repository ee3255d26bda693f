// Package app is the composition root for portalwatch.
//
// Run loads configuration, opens the zerolog file logger, builds the portal
// client, the notifier and an optional chat room, and hands them to the
// terminal UI (or to the headless runner with --headless).
//
// # Polling
//
// A Poller refreshes one screen's queue. Every tick launches a fetch tagged
// with an increasing sequence number, so slow fetches may overlap with newer
// ones. A result is applied only when its poller is still active and its
// sequence is newer than the last applied one; anything else is dropped and
// counted as stale. Successful results are reconciled against the previous
// snapshot, passed to the notifier and stored. Failures are recorded in the
// store without touching the last good snapshot, and polling continues at
// the same interval.
//
// A Tracker owns the poller for the screen being watched. Switch starts the
// new poller before stopping the old one, so a screen missing its agenda or
// patient ids (portal.ErrMissingContext) leaves the current queue running.
//
// # Errors
//
// Configuration and client setup errors are returned from Run. Poll errors
// are logged and surfaced through the store. Chat setup errors are logged
// and shown as a toast; the queue keeps working without chat.
package app
