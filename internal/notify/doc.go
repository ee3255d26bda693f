// Package notify decides when queue movement deserves the viewer's attention
// and delivers it as a short chime and/or a toast.
//
// The policy is deliberately broad: after the first poll, any change in queue
// length alerts, as does any status change on the viewer's own entry. Sound is
// best effort. A missing audio player, a failing command or a panicking
// player is logged at debug level and otherwise ignored.
package notify
