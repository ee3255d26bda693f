package ui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogsViewTailsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portalwatch.log")
	lines := strings.Join([]string{
		`{"level":"info","component":"poller","time":"2026-10-16T10:00:00Z","message":"poll ok","size":"3"}`,
		`{"level":"warn","component":"chat","time":"2026-10-16T10:00:01Z","message":"history save failed","error":"redis down"}`,
		`not json at all`,
	}, "\n") + "\n"
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	m := sized(t, New(Options{Tracker: &fakeTracker{}, LogPath: path}))
	m, cmd := press(t, m, keyRunes("l"))
	if m.currentView != ViewLogs {
		t.Fatalf("view = %v, want ViewLogs", m.currentView)
	}
	if cmd == nil {
		t.Fatal("expected a log refresh command")
	}
	next, _ := m.Update(cmd())
	m = next.(Model)

	if len(m.logState.entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(m.logState.entries))
	}
	view := m.View()
	for _, want := range []string{"poll ok", "[chat]", "error=redis down", "not json at all", "3 entries", "following"} {
		if !strings.Contains(view, want) {
			t.Errorf("logs view missing %q", want)
		}
	}

	m, _ = press(t, m, keyRunes(" "))
	if m.logState.follow {
		t.Fatal("space should pause following")
	}
	if !strings.Contains(m.View(), "paused") {
		t.Fatal("status should read paused")
	}
}

func TestLogsViewMissingFile(t *testing.T) {
	m := sized(t, New(Options{Tracker: &fakeTracker{}, LogPath: filepath.Join(t.TempDir(), "nope.log")}))
	m, cmd := press(t, m, keyRunes("l"))
	next, _ := m.Update(cmd())
	m = next.(Model)
	if m.logState.err == nil {
		t.Fatal("expected tail error")
	}
	if !strings.Contains(m.View(), "No log entries yet") {
		t.Fatal("expected empty placeholder")
	}
}
