package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/julioseixas/portalwatch/internal/metrics"
	"github.com/julioseixas/portalwatch/internal/notify"
	"github.com/julioseixas/portalwatch/internal/portal"
	"github.com/julioseixas/portalwatch/internal/queue"
	"github.com/julioseixas/portalwatch/internal/state"
)

const defaultPollInterval = 3 * time.Second

// PollerOptions configure a Poller.
type PollerOptions struct {
	Fetcher  portal.Fetcher
	Query    portal.Query
	Store    *state.Store
	Notifier *notify.Notifier // nil disables alerts
	ViewerID string
	Clock    clockwork.Clock
	Interval time.Duration
	Logger   zerolog.Logger
}

// Poller refreshes one screen's queue at a fixed cadence.
type Poller struct {
	opts PollerOptions
	log  zerolog.Logger

	seq atomic.Uint64

	mu      sync.Mutex // guards applied, polled and writes to the store
	applied uint64
	polled  bool
}

// NewPoller builds a Poller, filling defaults.
func NewPoller(opts PollerOptions) *Poller {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultPollInterval
	}
	if opts.Store == nil {
		opts.Store = state.NewStore(opts.Clock)
	}
	return &Poller{
		opts: opts,
		log: opts.Logger.With().
			Str("component", "poller").
			Str("screen", string(opts.Query.Screen)).
			Logger(),
	}
}

// Store returns the store the poller writes to.
func (p *Poller) Store() *state.Store {
	return p.opts.Store
}

// Handle controls a running poller.
type Handle struct {
	cancel  context.CancelFunc
	done    chan struct{}
	active  atomic.Bool
	stopped sync.Once
}

// Stop clears the timer and waits for the loop to exit. Fetches already in
// flight finish on their own; their results are dropped.
func (h *Handle) Stop() {
	if h == nil {
		return
	}
	h.stopped.Do(func() {
		h.active.Store(false)
		h.cancel()
		<-h.done
	})
}

// Active reports whether results are still being applied.
func (h *Handle) Active() bool {
	return h != nil && h.active.Load()
}

// Start validates the query and launches the polling loop. It polls once
// immediately and then every interval. Ticks do not wait for earlier fetches.
func (p *Poller) Start(ctx context.Context) (*Handle, error) {
	if err := p.opts.Query.Validate(); err != nil {
		return nil, err
	}
	loopCtx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}
	h.active.Store(true)

	go func() {
		defer close(h.done)
		ticker := p.opts.Clock.NewTicker(p.opts.Interval)
		defer ticker.Stop()

		for {
			seq := p.seq.Add(1)
			go p.poll(ctx, h, seq)
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.Chan():
			}
		}
	}()

	p.log.Info().Dur("interval", p.opts.Interval).Msg("poller started")
	return h, nil
}

// poll performs one fetch and applies its outcome.
func (p *Poller) poll(ctx context.Context, h *Handle, seq uint64) {
	screen := string(p.opts.Query.Screen)
	started := p.opts.Clock.Now()
	snap, err := p.opts.Fetcher.FetchQueue(ctx, p.opts.Query)
	metrics.FetchLatency.WithLabelValues(screen).Observe(p.opts.Clock.Since(started).Seconds())
	p.apply(ctx, h, seq, snap, err)
}

func (p *Poller) apply(ctx context.Context, h *Handle, seq uint64, snap queue.Snapshot, err error) {
	screen := string(p.opts.Query.Screen)

	p.mu.Lock()
	defer p.mu.Unlock()

	if !h.Active() {
		p.log.Debug().Uint64("seq", seq).Msg("poller stopped, dropping result")
		return
	}
	if seq <= p.applied {
		metrics.PollsTotal.WithLabelValues(screen, "stale").Inc()
		p.log.Debug().Uint64("seq", seq).Uint64("applied", p.applied).Msg("dropping out-of-order result")
		return
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		metrics.PollsTotal.WithLabelValues(screen, "failed").Inc()
		p.opts.Store.Update(nil, queue.Result{}, err)
		p.log.Warn().Err(err).Uint64("seq", seq).Msg("queue poll failed")
		return
	}

	p.applied = seq
	first := !p.polled
	res := queue.Reconcile(p.opts.Store.Previous(), snap)
	if p.opts.Notifier != nil && p.opts.Notifier.Notify(ctx, res, snap, first) {
		metrics.AlertsTotal.WithLabelValues(screen).Inc()
	}
	p.opts.Store.Update(&snap, res, nil)
	p.polled = true

	_, pos, _ := snap.OwnedBy(p.opts.ViewerID)
	metrics.PollsTotal.WithLabelValues(screen, "ok").Inc()
	metrics.QueueSize.WithLabelValues(screen).Set(float64(snap.Len()))
	metrics.ViewerPosition.WithLabelValues(screen).Set(float64(pos))

	p.log.Debug().
		Uint64("seq", seq).
		Int("entries", snap.Len()).
		Int("added", len(res.Added)).
		Int("removed", len(res.Removed)).
		Int("changed", len(res.Changed)).
		Bool("first", first).
		Msg("queue poll applied")
}
