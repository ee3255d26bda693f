package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julioseixas/portalwatch/internal/logtail"
)

const logTailLimit = 500

// logState holds the logs view state.
type logState struct {
	viewport viewport.Model
	entries  []logtail.Entry
	follow   bool
	err      error
	dirty    bool
}

func newLogState() logState {
	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle()
	return logState{viewport: vp, follow: true, dirty: true}
}

type logTailMsg struct {
	entries []logtail.Entry
	err     error
}

// refreshLogs reads the log tail off the UI goroutine.
func (m Model) refreshLogs() tea.Cmd {
	if m.logPath == "" {
		return nil
	}
	path := m.logPath
	return func() tea.Msg {
		entries, err := logtail.Tail(path, logTailLimit)
		return logTailMsg{entries: entries, err: err}
	}
}

func (m *Model) handleLogTail(msg logTailMsg) {
	m.logState.err = msg.err
	if msg.err == nil {
		n := len(msg.entries)
		if n != len(m.logState.entries) || (n > 0 && !sameEntry(msg.entries[n-1], m.logState.entries[n-1])) {
			m.logState.dirty = true
		}
		m.logState.entries = msg.entries
	}
	m.updateLogViewport()
}

func sameEntry(a, b logtail.Entry) bool {
	return a.Time.Equal(b.Time) && a.Message == b.Message && a.Raw == b.Raw
}

func (m *Model) updateLogViewport() {
	m.logState.viewport.Width = max(m.width-4, 10)
	m.logState.viewport.Height = max(m.contentHeight()-3, 1)
	m.logState.viewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))

	if m.logState.dirty {
		m.logState.viewport.SetContent(m.renderLogContent())
		m.logState.dirty = false
	}
	if m.logState.follow {
		m.logState.viewport.GotoBottom()
	}
}

func (m Model) renderLogContent() string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	width := m.logState.viewport.Width

	if len(m.logState.entries) == 0 {
		return bg.FillLine(bg.Render("No log entries yet", styles.MutedText), width)
	}
	lines := make([]string, 0, len(m.logState.entries))
	for _, e := range m.logState.entries {
		lines = append(lines, bg.FillLine(m.colorizeEntry(e, styles, bg), width))
	}
	return strings.Join(lines, "\n")
}

// colorizeEntry styles an entry the way logtail.Format lays it out.
func (m Model) colorizeEntry(e logtail.Entry, styles Styles, bg BgStyle) string {
	if e.Raw != "" {
		return bg.Render(e.Raw, styles.MutedText)
	}
	var parts []string
	if !e.Time.IsZero() {
		parts = append(parts, bg.Render(e.Time.Local().Format("15:04:05"), styles.FaintText))
	}
	if e.Level != "" {
		parts = append(parts, bg.Render(e.Level, levelStyle(e.Level, styles)))
	}
	if e.Component != "" {
		parts = append(parts, bg.Render("["+e.Component+"]", styles.AccentText))
	}
	parts = append(parts, bg.Render(e.Message, styles.Text))
	// fields and error only
	if rest := strings.TrimSpace(logtail.Format(logtail.Entry{Fields: e.Fields, Error: e.Error})); rest != "" {
		parts = append(parts, bg.Render(rest, styles.MutedText))
	}
	return bg.Join(parts, " ")
}

func levelStyle(level string, styles Styles) lipgloss.Style {
	switch level {
	case "ERROR", "FATAL", "PANIC":
		return styles.DangerText
	case "WARN":
		return styles.WarningText.Bold(true)
	case "DEBUG", "TRACE":
		return styles.FaintText
	default:
		return styles.SuccessText
	}
}

// renderLogs renders the logs view with a status line under the box.
func (m Model) renderLogs() string {
	bg := NewBgStyle(m.theme.Surface)
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	height := m.contentHeight() - 1

	box := m.renderTitledBox("Logs", m.logState.viewport.View(), m.width, height, true)

	status := "following"
	if !m.logState.follow {
		status = "paused"
	}
	parts := []string{
		bg.Render(fmt.Sprintf("%d entries", len(m.logState.entries)), styles.MutedText),
		bg.Render(status, styles.AccentText),
		bg.Render(truncate(m.logPath, max(m.width/2, 20)), styles.FaintText),
	}
	if m.logState.err != nil {
		parts = append(parts, bg.Render(truncate(m.logState.err.Error(), 60), styles.DangerText))
	}
	return box + "\n" + bg.FillLine(bg.Space()+bg.Join(parts, "  "), m.width)
}

// handleLogsKey processes keyboard input for the logs view.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	vp := &m.logState.viewport
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logState.follow = !m.logState.follow
		if m.logState.follow {
			vp.GotoBottom()
			return m, m.refreshLogs()
		}
	case key.Matches(msg, m.keys.Down):
		vp.ScrollDown(1)
	case key.Matches(msg, m.keys.Up):
		m.logState.follow = false
		vp.ScrollUp(1)
	case key.Matches(msg, m.keys.PageDown):
		vp.HalfPageDown()
	case key.Matches(msg, m.keys.PageUp):
		m.logState.follow = false
		vp.HalfPageUp()
	case key.Matches(msg, m.keys.Top):
		m.logState.follow = false
		vp.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		vp.GotoBottom()
	}
	return m, nil
}
