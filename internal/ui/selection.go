package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julioseixas/portalwatch/internal/notify"
	"github.com/julioseixas/portalwatch/internal/portal"
)

var screenHints = map[portal.Screen]string{
	portal.ScreenConsultation: "Scheduled appointments for your agenda",
	portal.ScreenEmergency:    "Emergency room triage queue",
	portal.ScreenTelemedicine: "Video consultation waiting room",
}

// openSelection switches to the screen menu. A non-nil err is shown as a
// toast explaining why the menu was opened.
func (m *Model) openSelection(err error) {
	m.currentView = ViewSelect
	m.selectCursor = 0
	for i, s := range portal.Screens {
		if s == m.screen {
			m.selectCursor = i
			break
		}
	}
	if err != nil {
		m.postToast(notify.LevelError, err.Error())
	}
}

// renderSelection renders the screen menu.
func (m Model) renderSelection() string {
	height := m.contentHeight()
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	selBg := NewBgStyle(m.theme.SelectionBg)
	selStyles := m.theme.Styles().WithBackground(m.theme.SelectionBg)
	inner := m.width - 2

	lines := []string{bg.FillLine("", inner)}
	for i, s := range portal.Screens {
		marker := "  "
		if s == m.screen {
			marker = "● "
		}
		title := fmt.Sprintf("%s%-14s", marker, s.Title())
		hint := screenHints[s]
		if i == m.selectCursor {
			row := selBg.Space() + selBg.Render(title, selStyles.Text.Bold(true)) + selBg.Render(hint, selStyles.MutedText)
			lines = append(lines, selBg.FillLine(row, inner))
			continue
		}
		row := bg.Space() + bg.Render(title, styles.Text) + bg.Render(hint, styles.FaintText)
		lines = append(lines, bg.FillLine(row, inner))
	}
	return m.renderTitledBox("Choose a queue", strings.Join(lines, "\n"), m.width, height, true)
}

// handleSelectKey moves the cursor and opens the chosen screen.
func (m Model) handleSelectKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.selectCursor < len(portal.Screens)-1 {
			m.selectCursor++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selectCursor > 0 {
			m.selectCursor--
		}
	case key.Matches(msg, m.keys.Top):
		m.selectCursor = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selectCursor = len(portal.Screens) - 1
	case key.Matches(msg, m.keys.Confirm):
		if m.tracker == nil {
			return m, nil
		}
		return m, switchScreenCmd(m.ctx, m.tracker, portal.Screens[m.selectCursor])
	}
	return m, nil
}

func switchScreenCmd(ctx context.Context, tracker Tracker, screen portal.Screen) tea.Cmd {
	return func() tea.Msg {
		return switchResultMsg{screen: screen, err: tracker.Switch(ctx, screen)}
	}
}

// handleSwitchResult leaves the menu when the new poller started and stays
// on it otherwise.
func (m Model) handleSwitchResult(msg switchResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.postToast(notify.LevelError, fmt.Sprintf("Cannot open %s: %v", msg.screen.Title(), msg.err))
		return m, nil
	}
	m.screen = msg.screen
	m.currentView = ViewQueue
	m.queueOffset = 0
	m.prefs.Screen = string(msg.screen)
	m.savePrefs()
	if m.tracker != nil {
		m.snapshot = m.tracker.Snapshot()
		return m, fetchSnapshotCmd(m.tracker)
	}
	return m, nil
}
