package notify

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/julioseixas/portalwatch/internal/queue"
)

// Notifier turns reconciliation results into sounds and toasts.
type Notifier struct {
	policy Policy
	player Player
	cue    Cue
	toasts ToastSink
	log    zerolog.Logger
	muted  atomic.Bool
}

// New creates a Notifier. A nil player is silent and a nil sink drops toasts.
func New(policy Policy, player Player, toasts ToastSink, logger zerolog.Logger) *Notifier {
	if player == nil {
		player = Silent{}
	}
	return &Notifier{
		policy: policy,
		player: player,
		cue:    DefaultCue,
		toasts: toasts,
		log:    logger.With().Str("component", "notifier").Logger(),
	}
}

// SetMuted turns the sound on or off. Toasts are always posted.
func (n *Notifier) SetMuted(muted bool) {
	n.muted.Store(muted)
}

// Muted reports whether sound is off.
func (n *Notifier) Muted() bool {
	return n.muted.Load()
}

// Notify applies the policy to res and reports whether an alert fired. The cue
// is played in the background; playback failures never reach the caller.
func (n *Notifier) Notify(ctx context.Context, res queue.Result, next queue.Snapshot, isFirstPoll bool) bool {
	if isFirstPoll || res.Empty() {
		return false
	}
	alert := n.policy.ShouldAlert(res, isFirstPoll)

	level := LevelInfo
	if alert {
		level = LevelAlert
	}
	if n.toasts != nil {
		for _, line := range n.policy.Describe(res, next) {
			n.toasts.Post(level, line)
		}
	}

	if alert && !n.Muted() {
		go n.play(ctx)
	}
	return alert
}

func (n *Notifier) play(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			n.log.Debug().Str("panic", fmt.Sprint(r)).Msg("sound player panicked")
		}
	}()
	if err := n.player.Play(ctx, n.cue); err != nil {
		n.log.Debug().Err(err).Msg("sound cue not played")
	}
}
