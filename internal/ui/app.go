package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julioseixas/portalwatch/internal/chat"
	"github.com/julioseixas/portalwatch/internal/notify"
	"github.com/julioseixas/portalwatch/internal/portal"
	"github.com/julioseixas/portalwatch/internal/prefs"
	"github.com/julioseixas/portalwatch/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewQueue View = iota
	ViewChat
	ViewLogs
	ViewSelect
)

// Tracker is the poller side the UI reads from and steers.
type Tracker interface {
	Snapshot() state.Snapshot
	Screen() portal.Screen
	// Switch stops the current poller and starts one for screen. It
	// returns portal.ErrMissingContext when screen cannot be polled.
	Switch(ctx context.Context, screen portal.Screen) error
}

// Toasts is where transient messages are read from and posted to.
type Toasts interface {
	notify.ToastSink
	Active() []notify.Toast
}

// Muter toggles alert sounds.
type Muter interface {
	SetMuted(bool)
	Muted() bool
}

// ChatRoom is the joined telemedicine room.
type ChatRoom interface {
	ID() string
	Messages() []chat.Message
	Send(ctx context.Context, text string) (chat.Message, error)
	OnChange(fn func())
}

// Options configure the UI.
type Options struct {
	Context      context.Context
	Tracker      Tracker
	Toasts       Toasts
	Muter        Muter    // optional
	Room         ChatRoom // optional
	ViewerID     string
	LogPath      string
	Prefs        prefs.Prefs
	PrefsPath    string
	RefreshEvery time.Duration
	// StartErr is the error from starting the first poller, if any.
	StartErr error
}

const defaultRefresh = 500 * time.Millisecond

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	tracker   Tracker
	toasts    Toasts
	muter     Muter
	room      ChatRoom
	viewerID  string
	logPath   string
	prefs     prefs.Prefs
	prefsPath string
	refresh   time.Duration
	now       func() time.Time
	keys      keyMap

	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool

	snapshot    state.Snapshot
	screen      portal.Screen
	queueOffset int

	selectCursor int
	chatState    chatState
	logState     logState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	refresh := opts.RefreshEvery
	if refresh <= 0 {
		refresh = defaultRefresh
	}
	p := opts.Prefs
	if p.Theme == "" {
		p = prefs.Defaults()
	}

	m := Model{
		ctx:         ctx,
		tracker:     opts.Tracker,
		toasts:      opts.Toasts,
		muter:       opts.Muter,
		room:        opts.Room,
		viewerID:    opts.ViewerID,
		logPath:     opts.LogPath,
		prefs:       p,
		prefsPath:   opts.PrefsPath,
		refresh:     refresh,
		now:         time.Now,
		keys:        defaultKeyMap(),
		theme:       GetTheme(p.Theme),
		currentView: ViewQueue,
		chatState:   newChatState(),
		logState:    newLogState(),
	}
	if m.tracker != nil {
		m.screen = m.tracker.Screen()
		m.snapshot = m.tracker.Snapshot()
	}
	if errors.Is(opts.StartErr, portal.ErrMissingContext) {
		m.openSelection(opts.StartErr)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.refresh)}
	if m.tracker != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.tracker))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeChat()
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = msg.snapshot
		m.screen = msg.screen
		m.clampQueueOffset()
		return m, nil

	case chatUpdatedMsg:
		m.updateChatViewport()
		return m, nil

	case chatSentMsg:
		if msg.err != nil {
			m.postToast(notify.LevelError, "Message not delivered: "+msg.err.Error())
		}
		m.updateChatViewport()
		return m, nil

	case logTailMsg:
		m.handleLogTail(msg)
		return m, nil

	case switchResultMsg:
		return m.handleSwitchResult(msg)
	}

	if m.currentView == ViewChat {
		return m.updateChatInput(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderToasts())
	return b.String()
}

// contentHeight is the space left for the active view after the header,
// command bar and toast line.
func (m Model) contentHeight() int {
	return max(m.height-3, 3)
}

func (m Model) renderContent() string {
	switch m.currentView {
	case ViewChat:
		return m.renderChat()
	case ViewLogs:
		return m.renderLogs()
	case ViewSelect:
		return m.renderSelection()
	default:
		return m.renderQueue()
	}
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	// The compose box owns the keyboard in the chat view.
	if m.currentView == ViewChat {
		switch {
		case key.Matches(msg, m.keys.Tab):
			return m.cycleView()
		case key.Matches(msg, m.keys.Escape):
			m.currentView = ViewQueue
			return m, nil
		}
		return m.handleChatKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		m.updateChatViewport()
		m.logState.dirty = true
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.Mute):
		m.toggleMute()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		return m.cycleView()

	case key.Matches(msg, m.keys.ViewQueue), key.Matches(msg, m.keys.Escape):
		m.currentView = ViewQueue
		return m, nil

	case key.Matches(msg, m.keys.ViewChat):
		return m.openChat()

	case key.Matches(msg, m.keys.ViewLogs):
		m.currentView = ViewLogs
		return m, m.refreshLogs()

	case key.Matches(msg, m.keys.SelectScreen):
		m.openSelection(nil)
		return m, nil
	}

	switch m.currentView {
	case ViewLogs:
		return m.handleLogsKey(msg)
	case ViewSelect:
		return m.handleSelectKey(msg)
	default:
		return m.handleQueueKey(msg)
	}
}

// cycleView moves queue → chat → logs → queue, skipping chat when no room
// is configured.
func (m Model) cycleView() (tea.Model, tea.Cmd) {
	switch m.currentView {
	case ViewQueue:
		if m.room != nil {
			return m.openChat()
		}
		m.currentView = ViewLogs
		return m, m.refreshLogs()
	case ViewChat:
		m.chatState.input.Blur()
		m.currentView = ViewLogs
		return m, m.refreshLogs()
	default:
		m.currentView = ViewQueue
		return m, nil
	}
}

func (m *Model) toggleMute() {
	if m.muter == nil {
		return
	}
	muted := !m.muter.Muted()
	m.muter.SetMuted(muted)
	m.prefs.Muted = muted
	m.savePrefs()
	if muted {
		m.postToast(notify.LevelInfo, "Alert sound muted")
	} else {
		m.postToast(notify.LevelInfo, "Alert sound on")
	}
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	_ = prefs.Save(m.prefsPath, m.prefs)
}

func (m *Model) postToast(level notify.Level, text string) {
	if m.toasts != nil {
		m.toasts.Post(level, text)
	}
}

// handleTick processes the refresh tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.tracker != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.tracker))
	}
	if m.currentView == ViewLogs && m.logState.follow {
		if cmd := m.refreshLogs(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	cmds = append(cmds, tickCmd(m.refresh))
	return m, tea.Batch(cmds...)
}

// Messages

type tickMsg time.Time

type snapshotMsg struct {
	snapshot state.Snapshot
	screen   portal.Screen
}

type chatUpdatedMsg struct{}

type chatSentMsg struct {
	err error
}

type switchResultMsg struct {
	screen portal.Screen
	err    error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(tracker Tracker) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg{snapshot: tracker.Snapshot(), screen: tracker.Screen()}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// is cancelled.
func Run(opts Options) error {
	m := New(opts)
	ctx := m.ctx
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if opts.Room != nil {
		opts.Room.OnChange(func() { p.Send(chatUpdatedMsg{}) })
		defer opts.Room.OnChange(nil)
	}
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
