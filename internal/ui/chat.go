package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julioseixas/portalwatch/internal/chat"
	"github.com/julioseixas/portalwatch/internal/notify"
)

const chatSendTimeout = 5 * time.Second

// chatState holds the chat log viewport and compose box.
type chatState struct {
	viewport viewport.Model
	input    textinput.Model
	rendered int // messages rendered into the viewport
}

func newChatState() chatState {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 500
	ti.Prompt = "› "

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle()
	return chatState{viewport: vp, input: ti}
}

// openChat switches to the chat view and focuses the compose box.
func (m Model) openChat() (tea.Model, tea.Cmd) {
	if m.room == nil {
		m.postToast(notify.LevelInfo, "No chat room configured")
		return m, nil
	}
	m.currentView = ViewChat
	m.updateChatViewport()
	m.chatState.viewport.GotoBottom()
	return m, m.chatState.input.Focus()
}

func (m *Model) resizeChat() {
	// box borders, compose line and its separator
	m.chatState.viewport.Width = max(m.width-4, 10)
	m.chatState.viewport.Height = max(m.contentHeight()-4, 1)
	m.chatState.input.Width = max(m.width-8, 10)
	m.chatState.rendered = -1
	m.updateChatViewport()
}

// updateChatViewport re-renders the message log, keeping the view pinned to
// the bottom when it was already there.
func (m *Model) updateChatViewport() {
	if m.room == nil {
		return
	}
	msgs := m.room.Messages()
	atBottom := m.chatState.viewport.AtBottom()
	m.chatState.viewport.SetContent(m.renderChatMessages(msgs, m.chatState.viewport.Width))
	if atBottom || len(msgs) != m.chatState.rendered {
		m.chatState.viewport.GotoBottom()
	}
	m.chatState.rendered = len(msgs)
}

func (m Model) renderChatMessages(msgs []chat.Message, width int) string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)

	if len(msgs) == 0 {
		return bg.FillLine(bg.Render("No messages yet", styles.MutedText), width)
	}

	var lines []string
	for _, msg := range msgs {
		lines = append(lines, bg.FillLine(m.chatLine(msg, styles, bg), width))
	}
	return strings.Join(lines, "\n")
}

// chatLine formats "15:04 Sender: text". Raw payloads are shown dimmed
// without a sender.
func (m Model) chatLine(msg chat.Message, styles Styles, bg BgStyle) string {
	ts := bg.Render(msg.SentAt.Local().Format("15:04"), styles.FaintText)
	if msg.Raw {
		return ts + bg.Space() + bg.Render(msg.Text, styles.MutedText.Italic(true))
	}
	sender := msg.SenderName
	if sender == "" {
		sender = msg.SenderID
	}
	senderStyle := styles.InfoText.Bold(true)
	if msg.SenderID != "" && msg.SenderID == m.viewerID {
		sender = "You"
		senderStyle = styles.AccentText.Bold(true)
	}
	return ts + bg.Space() + bg.Render(sender+":", senderStyle) + bg.Space() + bg.Render(msg.Text, styles.Text)
}

// renderChat renders the chat view.
func (m Model) renderChat() string {
	height := m.contentHeight()
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	inner := m.width - 2

	title := "Chat"
	if m.room != nil {
		title = "Chat · " + m.room.ID()
	}
	content := m.chatState.viewport.View() + "\n" +
		bg.FillLine(bg.Render(strings.Repeat("─", max(inner-2, 0)), styles.FaintText), inner) + "\n" +
		bg.FillLine(m.chatState.input.View(), inner)
	return m.renderTitledBox(title, content, m.width, height, true)
}

// handleChatKey routes keys to the compose box and the log viewport.
func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		text := strings.TrimSpace(m.chatState.input.Value())
		if text == "" {
			return m, nil
		}
		m.chatState.input.SetValue("")
		return m, sendChatCmd(m.ctx, m.room, text)
	case key.Matches(msg, m.keys.PageUp):
		m.chatState.viewport.HalfPageUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.chatState.viewport.HalfPageDown()
		return m, nil
	}
	return m.updateChatInput(msg)
}

func (m Model) updateChatInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.chatState.input, cmd = m.chatState.input.Update(msg)
	return m, cmd
}

func sendChatCmd(ctx context.Context, room ChatRoom, text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, chatSendTimeout)
		defer cancel()
		_, err := room.Send(ctx, text)
		return chatSentMsg{err: err}
	}
}
