package notify

import (
	"fmt"

	"github.com/julioseixas/portalwatch/internal/queue"
)

// Policy decides whether a reconciliation result deserves an alert.
type Policy struct {
	ViewerID string // owner id of the person watching the screen
}

// ShouldAlert never fires on the first poll. Afterwards it fires on any change
// in queue length, whoever it concerns, and on status changes to the viewer's
// own entry.
func (p Policy) ShouldAlert(res queue.Result, isFirstPoll bool) bool {
	if isFirstPoll || res.First {
		return false
	}
	if res.SizeChanged {
		return true
	}
	for _, c := range res.Changed {
		if p.owns(c.OwnerID) && c.StatusChanged() {
			return true
		}
	}
	return false
}

// Describe renders the toast lines for a result. The first poll yields none.
func (p Policy) Describe(res queue.Result, next queue.Snapshot) []string {
	if res.First {
		return nil
	}
	var lines []string
	for _, e := range res.Added {
		if p.owns(e.OwnerID) {
			lines = append(lines, fmt.Sprintf("You joined the queue at position %d", next.Position(e.ID)))
		}
	}
	for _, e := range res.Removed {
		if p.owns(e.OwnerID) {
			lines = append(lines, "You are no longer in the queue")
		}
	}
	for _, c := range res.Changed {
		if !p.owns(c.OwnerID) {
			continue
		}
		if c.StatusChanged() {
			lines = append(lines, fmt.Sprintf("Status: %s → %s", orDash(statusText(c.Previous)), orDash(statusText(c.Next))))
		}
		if c.PositionChanged() {
			if c.Position == 1 {
				lines = append(lines, "You are next to be served")
			} else {
				lines = append(lines, fmt.Sprintf("Your position is now %d", c.Position))
			}
		}
	}
	if len(lines) == 0 && res.SizeChanged {
		lines = append(lines, fmt.Sprintf("Queue now has %d %s", next.Len(), plural(next.Len(), "patient", "patients")))
	}
	return lines
}

func (p Policy) owns(owner string) bool {
	return p.ViewerID != "" && owner == p.ViewerID
}

// statusText prefers the description and falls back to the code.
func statusText(f queue.Fields) string {
	if f.Status != "" {
		return f.Status
	}
	return f.StatusCode
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
