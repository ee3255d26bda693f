package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julioseixas/portalwatch/internal/notify"
	"github.com/julioseixas/portalwatch/internal/portal"
)

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < 100

	parts := []string{
		bg.Render("portalwatch", styles.Logo),
		bg.Render(m.screen.Title(), styles.AccentText.Bold(true)),
	}

	snap := m.snapshot
	switch {
	case !snap.HasData && snap.LastError != nil:
		parts = append(parts,
			bg.Render("PORTAL "+classifyFetchError(snap.LastError), styles.DangerText),
			bg.Render("Retrying...", styles.WarningText.Bold(true)))
	case !snap.HasData:
		parts = append(parts, bg.Render("Connecting...", styles.WarningText.Bold(true)))
	default:
		parts = append(parts,
			bg.Render("Queue:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", snap.Queue.Len()), styles.Text))

		if _, pos, ok := snap.Queue.OwnedBy(m.viewerID); ok {
			parts = append(parts,
				bg.Render("You:", styles.MutedText)+bg.Space()+
					bg.Render(fmt.Sprintf("#%d", pos), styles.SuccessText))
		} else if m.viewerID != "" && !compact {
			parts = append(parts, bg.Render("You: not in queue", styles.MutedText))
		}

		if ts := m.formatTimestamp(); ts != "" {
			parts = append(parts, bg.Render(ts, styles.MutedText))
		}

		if snap.LastError != nil {
			label := "STALE"
			if snap.IsOffline() {
				label = "OFFLINE"
			}
			detail := classifyFetchError(snap.LastError)
			if !compact {
				detail = truncate(snap.LastError.Error(), 60)
			}
			parts = append(parts,
				bg.Render(label, styles.DangerText)+bg.Space()+
					bg.Render(detail, styles.WarningText))
		}
	}

	if m.muter != nil && m.muter.Muted() {
		parts = append(parts, bg.Render("MUTED", styles.WarningText.Bold(true)))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// formatTimestamp formats the last successful update with a relative hint.
func (m Model) formatTimestamp() string {
	last := m.snapshot.LastUpdated
	if last.IsZero() {
		return ""
	}
	since := m.now().Sub(last)
	out := "Updated " + last.Format("15:04:05")
	switch {
	case since < time.Minute:
		out += " (now)"
	case since < time.Hour:
		out += fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	default:
		out += fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	}
	return out
}

// classifyFetchError returns a short description of a poll failure.
func classifyFetchError(err error) string {
	var fe *portal.FetchError
	if !errors.As(err, &fe) {
		return "ERROR"
	}
	switch fe.Kind {
	case portal.KindNetwork:
		msg := fe.Error()
		switch {
		case strings.Contains(msg, "no such host"):
			return "HOST NOT FOUND"
		case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
			return "TIMEOUT"
		}
		return "OFFLINE"
	case portal.KindServer:
		if fe.StatusCode == 401 || fe.StatusCode == 403 {
			return "LOGIN EXPIRED"
		}
		return fmt.Sprintf("HTTP %d", fe.StatusCode)
	case portal.KindEnvelope:
		return "BAD RESPONSE"
	}
	return "ERROR"
}

// renderCommandBar renders the key hints for the active view.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewChat:
		commands = []cmd{
			{"Enter", "Send"},
			{"PgUp/PgDn", "Scroll"},
			{"Tab", "Next"},
			{"Esc", "Queue"},
		}
	case ViewLogs:
		followLabel := "Pause"
		if !m.logState.follow {
			followLabel = "Follow"
		}
		commands = []cmd{
			{"Space", followLabel},
			{"j/k", "Scroll"},
			{"q", "Queue"},
			{"Tab", "Next"},
			{"?", "More"},
		}
	case ViewSelect:
		commands = []cmd{
			{"j/k", "Navigate"},
			{"Enter", "Open"},
			{"Esc", "Back"},
		}
	default:
		commands = []cmd{
			{"j/k", "Scroll"},
			{"s", "Screen"},
		}
		if m.room != nil {
			commands = append(commands, cmd{"c", "Chat"})
		}
		commands = append(commands,
			cmd{"l", "Logs"},
			cmd{"m", "Mute"},
			cmd{"?", "More"},
		)
	}

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}

// renderToasts renders the newest active toast in the footer line.
func (m Model) renderToasts() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	line := lipgloss.NewStyle().Background(lipgloss.Color(m.theme.Surface)).Width(m.width)

	if m.toasts == nil {
		return line.Render("")
	}
	active := m.toasts.Active()
	if len(active) == 0 {
		return line.Render("")
	}

	latest := active[len(active)-1]
	style := styles.InfoText
	icon := "•"
	switch latest.Level {
	case notify.LevelAlert:
		style = styles.SuccessText
		icon = "♪"
	case notify.LevelError:
		style = styles.DangerText
		icon = "!"
	}
	text := bg.Space() + bg.Render(icon, style) + bg.Space() + bg.Render(truncate(latest.Text, max(m.width-8, 10)), style)
	if more := len(active) - 1; more > 0 {
		text += bg.Spaces(2) + bg.Render(fmt.Sprintf("+%d", more), styles.FaintText)
	}
	return line.Render(text)
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
