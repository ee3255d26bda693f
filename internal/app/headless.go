package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/julioseixas/portalwatch/internal/notify"
)

// toastLog is the toast sink used without a TUI.
type toastLog struct {
	log zerolog.Logger
}

func newToastLog(logger zerolog.Logger) toastLog {
	return toastLog{log: logger.With().Str("component", "toast").Logger()}
}

// Post implements notify.ToastSink.
func (t toastLog) Post(level notify.Level, text string) {
	switch level {
	case notify.LevelError:
		t.log.Warn().Msg(text)
	case notify.LevelAlert:
		t.log.Info().Bool("alert", true).Msg(text)
	default:
		t.log.Info().Msg(text)
	}
}

// runHeadless polls until ctx is cancelled.
func runHeadless(ctx context.Context, tracker *Tracker, logger zerolog.Logger) error {
	logger.Info().Str("screen", string(tracker.Screen())).Msg("running headless")
	<-ctx.Done()
	tracker.Stop()
	snap := tracker.Snapshot()
	logger.Info().
		Int("entries", snap.Queue.Len()).
		Int("consecutive_failures", snap.ConsecutiveFailures).
		Msg("stopped")
	return nil
}
