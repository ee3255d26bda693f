package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/julioseixas/portalwatch/internal/metrics"
)

// ErrEmptyMessage is returned by Send for blank text.
var ErrEmptyMessage = errors.New("chat: empty message")

// ErrDuplicateMessage is returned by Send when the same text was just sent.
// Nothing is published.
var ErrDuplicateMessage = errors.New("chat: message already sent")

// ErrNotJoined is returned by Send before Join or after Leave.
var ErrNotJoined = errors.New("chat: room not joined")

// RoomOptions configure a Room.
type RoomOptions struct {
	RoomID     string
	SenderID   string
	SenderName string
	Bus        Bus
	History    History // optional
	Cache      *Cache  // shared across rooms; created when nil
	Clock      clockwork.Clock
	Logger     zerolog.Logger
}

// Room is one telemedicine chat the viewer takes part in.
type Room struct {
	opts RoomOptions
	log  zerolog.Logger

	ownsCache bool // cache created by NewRoom, cleared on Leave

	mu          sync.Mutex
	unsubscribe func() error
	onChange    func()
}

// NewRoom builds a Room. It does not subscribe until Join.
func NewRoom(opts RoomOptions) *Room {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	owns := opts.Cache == nil
	if owns {
		opts.Cache = NewCache(CacheOptions{Clock: opts.Clock})
	}
	return &Room{
		opts:      opts,
		ownsCache: owns,
		log: opts.Logger.With().
			Str("component", "chat").
			Str("room", opts.RoomID).
			Logger(),
	}
}

// ID returns the room id.
func (r *Room) ID() string { return r.opts.RoomID }

// Cache returns the cache the room writes to.
func (r *Room) Cache() *Cache { return r.opts.Cache }

// OnChange registers fn to run whenever the room's messages change. fn runs
// on the goroutine that delivered the change and must not block.
func (r *Room) OnChange(fn func()) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

// Join subscribes to the room and replays stored history into the cache.
// Joining an already joined room only replays history.
func (r *Room) Join(ctx context.Context) error {
	r.mu.Lock()
	if r.unsubscribe == nil {
		unsub, err := r.opts.Bus.Subscribe(Subject(r.opts.RoomID), r.receive)
		if err != nil {
			r.mu.Unlock()
			return fmt.Errorf("join room %s: %w", r.opts.RoomID, err)
		}
		r.unsubscribe = unsub
	}
	r.mu.Unlock()

	r.replay(ctx)
	r.log.Info().Int("cached_rooms", r.opts.Cache.Rooms()).Msg("joined room")
	return nil
}

// replay loads history. Failures leave the room usable with live traffic only.
func (r *Room) replay(ctx context.Context) {
	if r.opts.History == nil {
		return
	}
	msgs, err := r.opts.History.Load(ctx, r.opts.RoomID)
	if err != nil {
		r.log.Warn().Err(err).Msg("history replay failed")
		return
	}
	added := 0
	for _, m := range msgs {
		if r.opts.Cache.Append(r.opts.RoomID, m) {
			added++
		}
	}
	metrics.ChatMessagesTotal.WithLabelValues("replayed").Add(float64(added))
	r.log.Debug().Int("stored", len(msgs)).Int("added", added).Msg("history replayed")
	if added > 0 {
		r.changed()
	}
}

func (r *Room) receive(data []byte) {
	m, malformed := Decode(data, r.opts.RoomID, r.opts.Clock.Now())
	if malformed {
		metrics.ChatMessagesTotal.WithLabelValues("malformed").Inc()
		r.log.Debug().Int("bytes", len(data)).Msg("malformed chat payload shown as text")
	}
	if m.Text == "" {
		return
	}
	if !r.opts.Cache.Append(r.opts.RoomID, m) {
		metrics.ChatMessagesTotal.WithLabelValues("duplicate").Inc()
		return
	}
	metrics.ChatMessagesTotal.WithLabelValues("received").Inc()
	r.changed()
}

// Send shows text locally right away and then publishes it. The echo coming
// back from the bus is dropped by the cache. History write failures are
// logged only.
func (r *Room) Send(ctx context.Context, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}
	r.mu.Lock()
	joined := r.unsubscribe != nil
	r.mu.Unlock()
	if !joined {
		return Message{}, ErrNotJoined
	}

	m := Message{
		ID:         uuid.NewString(),
		RoomID:     r.opts.RoomID,
		SenderID:   r.opts.SenderID,
		SenderName: r.opts.SenderName,
		Text:       text,
		SentAt:     r.opts.Clock.Now(),
	}
	if !r.opts.Cache.Append(r.opts.RoomID, m) {
		metrics.ChatMessagesTotal.WithLabelValues("duplicate").Inc()
		return m, ErrDuplicateMessage
	}
	r.changed()

	data, err := Encode(m)
	if err != nil {
		return m, fmt.Errorf("encode message: %w", err)
	}
	if err := r.opts.Bus.Publish(Subject(r.opts.RoomID), data); err != nil {
		return m, fmt.Errorf("send to room %s: %w", r.opts.RoomID, err)
	}
	metrics.ChatMessagesTotal.WithLabelValues("sent").Inc()

	if r.opts.History != nil {
		if err := r.opts.History.Save(ctx, m); err != nil {
			r.log.Warn().Err(err).Msg("history save failed")
		}
	}
	return m, nil
}

// Messages returns the room's messages, oldest first.
func (r *Room) Messages() []Message {
	return r.opts.Cache.Messages(r.opts.RoomID)
}

// Leave unsubscribes. Messages in a shared cache stay until evicted so
// re-joining shows them immediately; a room's private cache is cleared.
func (r *Room) Leave() error {
	r.mu.Lock()
	unsub := r.unsubscribe
	r.unsubscribe = nil
	r.mu.Unlock()
	if unsub == nil {
		return nil
	}
	if r.ownsCache {
		r.opts.Cache.Forget(r.opts.RoomID)
	}
	r.log.Info().Msg("left room")
	return unsub()
}

func (r *Room) changed() {
	r.mu.Lock()
	fn := r.onChange
	r.mu.Unlock()
	if fn != nil {
		fn()
	}
}
