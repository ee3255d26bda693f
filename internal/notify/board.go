package notify

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Level grades a toast.
type Level int

const (
	LevelInfo Level = iota
	LevelAlert
	LevelError
)

// Toast is a transient message for the viewer.
type Toast struct {
	Text  string
	Level Level
	At    time.Time
}

// ToastSink receives toasts.
type ToastSink interface {
	Post(level Level, text string)
}

const (
	defaultToastTTL = 8 * time.Second
	maxToasts       = 5
)

// Board keeps the most recent toasts until they expire.
type Board struct {
	mu    sync.Mutex
	clock clockwork.Clock
	ttl   time.Duration
	items []Toast
}

// NewBoard creates a board. A zero ttl uses the default.
func NewBoard(clock clockwork.Clock, ttl time.Duration) *Board {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if ttl <= 0 {
		ttl = defaultToastTTL
	}
	return &Board{clock: clock, ttl: ttl}
}

// Post implements ToastSink.
func (b *Board) Post(level Level, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, Toast{Text: text, Level: level, At: b.clock.Now()})
	if len(b.items) > maxToasts {
		b.items = b.items[len(b.items)-maxToasts:]
	}
}

// Active returns unexpired toasts, oldest first.
func (b *Board) Active() []Toast {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.clock.Now()
	kept := b.items[:0]
	for _, t := range b.items {
		if now.Sub(t.At) < b.ttl {
			kept = append(kept, t)
		}
	}
	b.items = kept
	out := make([]Toast, len(kept))
	copy(out, kept)
	return out
}
