package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julioseixas/portalwatch/internal/queue"
)

const (
	waitingMessage = "Waiting for first update"
	emptyMessage   = "Nobody in queue"
	nextMessage    = "You are next to be served"
)

// renderQueue renders the queue view.
func (m Model) renderQueue() string {
	height := m.contentHeight()
	snap := m.snapshot
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	bg := NewBgStyle(m.theme.FocusBg)
	title := m.queueTitle()

	if !snap.HasData {
		lines := []string{bg.Render(waitingMessage, styles.MutedText)}
		if snap.LastError != nil {
			lines = append(lines, "", bg.Render(truncate(snap.LastError.Error(), m.width-6), styles.DangerText))
		}
		return m.renderTitledBox(title, centerBlock(lines, m.width-2, height-2), m.width, height, true)
	}
	if snap.Queue.Len() == 0 {
		lines := []string{bg.Render(emptyMessage, styles.MutedText)}
		return m.renderTitledBox(title, centerBlock(lines, m.width-2, height-2), m.width, height, true)
	}

	inner := m.width - 2
	var lines []string
	if banner := queueBanner(snap.Queue, m.viewerID); banner != "" {
		style := styles.InfoText.Bold(true)
		if banner == nextMessage {
			style = styles.SuccessText
		}
		lines = append(lines, bg.FillLine(bg.Space()+bg.Render(banner, style), inner), bg.FillLine("", inner))
	}

	for i := m.queueOffset; i < len(snap.Queue.Entries); i++ {
		if len(lines) >= height-2 {
			break
		}
		entry := snap.Queue.Entries[i]
		pos := i + 1
		if m.viewerID != "" && entry.OwnerID == m.viewerID {
			lines = append(lines, strings.Split(m.renderViewerRow(pos, entry, inner), "\n")...)
			continue
		}
		lines = append(lines, m.renderQueueRow(pos, entry, inner))
	}
	return m.renderTitledBox(title, strings.Join(lines, "\n"), m.width, height, true)
}

func (m Model) queueTitle() string {
	if !m.snapshot.HasData {
		return m.screen.Title() + " queue"
	}
	n := m.snapshot.Queue.Len()
	noun := "patients"
	if n == 1 {
		noun = "patient"
	}
	return fmt.Sprintf("%s queue · %d %s", m.screen.Title(), n, noun)
}

// queueBanner returns the line shown above the list for the viewer.
func queueBanner(snap queue.Snapshot, viewerID string) string {
	if viewerID == "" {
		return ""
	}
	_, pos, ok := snap.OwnedBy(viewerID)
	switch {
	case !ok:
		return ""
	case pos == 1:
		return nextMessage
	case pos == 2:
		return "You are #2 · 1 patient ahead of you"
	default:
		return fmt.Sprintf("You are #%d · %d patients ahead of you", pos, pos-1)
	}
}

// rowText lays out one entry as plain text columns:
// position, name, status, arrival, scheduled time.
func rowText(pos int, e queue.Entry, width int) string {
	name := e.Name
	if strings.TrimSpace(name) == "" {
		name = "Patient"
	}
	status := e.Fields.Status
	if status == "" {
		status = e.Fields.StatusCode
	}

	cols := []string{fmt.Sprintf("%3d", pos)}
	nameWidth := max(width/3, 12)
	cols = append(cols, padRight(truncate(name, nameWidth), nameWidth))
	cols = append(cols, padRight(truncate(status, 22), 22))
	if e.Fields.Arrival != "" {
		cols = append(cols, "arr "+e.Fields.Arrival)
	}
	if e.Fields.Scheduled != "" {
		cols = append(cols, "sch "+e.Fields.Scheduled)
	}
	return truncate(strings.Join(cols, "  "), max(width, 10))
}

func padRight(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// renderQueueRow renders a regular entry.
func (m Model) renderQueueRow(pos int, e queue.Entry, width int) string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)

	text := rowText(pos, e, width-12)
	row := bg.Render(text, styles.Text)
	if e.Fields.Classification != "" {
		row += bg.Space() + styles.ClassificationStyle(e.Fields.Classification).Render(truncate(e.Fields.Classification, 10))
	}
	return bg.FillLine(row, width)
}

// renderViewerRow renders the viewer's own entry inside a ring with a badge.
func (m Model) renderViewerRow(pos int, e queue.Entry, width int) string {
	bgColor := lipgloss.Color(m.theme.FocusBg)
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)

	badge := styles.Badge.Render("YOU")
	text := rowText(pos, e, width-18)
	content := badge + bg.Space() + bg.Render(text, styles.Text.Bold(true))
	if e.Fields.Classification != "" {
		content += bg.Space() + styles.ClassificationStyle(e.Fields.Classification).Render(truncate(e.Fields.Classification, 10))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.ViewerRing)).
		BorderBackground(bgColor).
		Background(bgColor).
		Width(width - 2).
		Render(content)
}

// handleQueueKey scrolls the queue list.
func (m Model) handleQueueKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := m.snapshot.Queue.Len()
	if n == 0 {
		return m, nil
	}
	page := max(m.contentHeight()-4, 1)
	switch {
	case key.Matches(msg, m.keys.Down):
		m.queueOffset++
	case key.Matches(msg, m.keys.Up):
		m.queueOffset--
	case key.Matches(msg, m.keys.PageDown):
		m.queueOffset += page
	case key.Matches(msg, m.keys.PageUp):
		m.queueOffset -= page
	case key.Matches(msg, m.keys.Top):
		m.queueOffset = 0
	case key.Matches(msg, m.keys.Bottom):
		m.queueOffset = n - 1
	}
	m.clampQueueOffset()
	return m, nil
}

func (m *Model) clampQueueOffset() {
	n := m.snapshot.Queue.Len()
	if m.queueOffset > n-1 {
		m.queueOffset = n - 1
	}
	if m.queueOffset < 0 {
		m.queueOffset = 0
	}
}

// centerBlock centers lines inside a width x height area.
func centerBlock(lines []string, width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(lines, "\n"))
}

// renderTitledBox renders content in a box with the title embedded in the
// top border: ┌─── Title ───┐
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	borderColorStr, bgColorStr := m.theme.Border, m.theme.SurfaceAlt
	if focused {
		borderColorStr, bgColorStr = m.theme.BorderFocus, m.theme.FocusBg
	}
	bg := NewBgStyle(bgColorStr)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColorStr))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := max(width-2, 0)
	title = truncate(title, max(innerWidth-4, 0))
	titleLen := lipgloss.Width(title)
	leftPad := max((innerWidth-titleLen-2)/2, 0)
	rightPad := max(innerWidth-titleLen-2-leftPad, 0)

	topBorder := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)

	bottomBorder := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).MaxWidth(innerWidth).Background(lipgloss.Color(bgColorStr))

	contentLines := strings.Split(content, "\n")
	boxHeight := max(height-2, 0)
	padded := make([]string, 0, boxHeight)
	for i := 0; i < boxHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		padded = append(padded,
			bg.Render("│", borderStyle)+contentStyle.Render(line)+bg.Render("│", borderStyle))
	}

	return topBorder + "\n" + strings.Join(padded, "\n") + "\n" + bottomBorder
}
