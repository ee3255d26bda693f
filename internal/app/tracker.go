package app

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/julioseixas/portalwatch/internal/notify"
	"github.com/julioseixas/portalwatch/internal/portal"
	"github.com/julioseixas/portalwatch/internal/state"
)

// TrackerOptions configure a Tracker.
type TrackerOptions struct {
	Fetcher    portal.Fetcher
	Notifier   *notify.Notifier
	Screen     portal.Screen // requested initial screen
	AgendaID   string
	PatientIDs []string
	ViewerID   string
	Interval   time.Duration
	Clock      clockwork.Clock
	Logger     zerolog.Logger
}

// Tracker owns the poller for the screen being watched and swaps it when
// the viewer picks another screen.
type Tracker struct {
	opts TrackerOptions

	mu     sync.Mutex
	screen portal.Screen
	poller *Poller
	handle *Handle
}

// NewTracker creates a Tracker. Nothing is polled until Switch.
func NewTracker(opts TrackerOptions) *Tracker {
	if opts.Screen == "" {
		opts.Screen = portal.ScreenConsultation
	}
	return &Tracker{opts: opts, screen: opts.Screen}
}

// Query builds the query for screen from the configured ids.
func (t *Tracker) Query(screen portal.Screen) portal.Query {
	q := portal.Query{Screen: screen}
	switch screen {
	case portal.ScreenConsultation:
		q.AgendaID = t.opts.AgendaID
	default:
		q.PatientIDs = append([]string(nil), t.opts.PatientIDs...)
	}
	return q
}

// Switch starts polling screen and stops the previous poller. When the new
// poller cannot start, the previous one keeps running and the error is
// returned; portal.ErrMissingContext means the screen lacks its ids.
func (t *Tracker) Switch(ctx context.Context, screen portal.Screen) error {
	p := NewPoller(PollerOptions{
		Fetcher:  t.opts.Fetcher,
		Query:    t.Query(screen),
		Store:    state.NewStore(t.opts.Clock),
		Notifier: t.opts.Notifier,
		ViewerID: t.opts.ViewerID,
		Clock:    t.opts.Clock,
		Interval: t.opts.Interval,
		Logger:   t.opts.Logger,
	})

	t.mu.Lock()
	defer t.mu.Unlock()

	h, err := p.Start(ctx)
	if err != nil {
		t.opts.Logger.Warn().Err(err).Str("screen", string(screen)).Msg("cannot open screen")
		return err
	}
	t.handle.Stop()
	t.screen, t.poller, t.handle = screen, p, h
	return nil
}

// Screen returns the screen being watched, or the requested one before the
// first successful Switch.
func (t *Tracker) Screen() portal.Screen {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.screen
}

// Snapshot returns the current poller's state.
func (t *Tracker) Snapshot() state.Snapshot {
	t.mu.Lock()
	p := t.poller
	t.mu.Unlock()
	if p == nil {
		return state.Snapshot{}
	}
	return p.Store().Snapshot()
}

// Stop stops the current poller.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handle.Stop()
	t.handle = nil
}
