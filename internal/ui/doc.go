// Package ui provides the terminal interface for portalwatch.
//
// The UI is a Bubble Tea program. Model holds all view state and never
// blocks: snapshots are pulled from the Tracker on a refresh tick, log
// tails are read in commands, and chat messages arrive through
// Room.OnChange as program messages.
//
// # Views
//
//   - Queue: the current screen's queue, the viewer's own entry ringed and
//     badged, with a "You are #N" banner above the list
//   - Chat: the telemedicine room, when one is configured
//   - Logs: the tail of portalwatch's own log file
//   - Select: the screen menu, also opened automatically when the
//     configured screen is missing its agenda or patient ids
//
// The header carries queue size, the viewer's position, the last update
// time and a STALE or OFFLINE marker when polls are failing. The bottom
// line shows the newest toast from the notification board.
//
// # Key Bindings
//
//   - Tab: cycle queue, chat and logs
//   - q or Esc: queue view
//   - c: chat, l: logs, s: screen menu
//   - m: mute or unmute the alert sound
//   - T: cycle themes
//   - ? or h: help
//   - Ctrl+C: exit
//
// Theme, mute state and the last chosen screen are persisted through the
// prefs package.
package ui
