package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// memBus delivers published payloads synchronously to every subscriber.
type memBus struct {
	mu        sync.Mutex
	subs      map[string][]*memSub
	published [][]byte
	failWith  error
}

type memSub struct {
	handler func([]byte)
	active  bool
}

func newMemBus() *memBus {
	return &memBus{subs: make(map[string][]*memSub)}
}

func (b *memBus) Publish(subject string, data []byte) error {
	b.mu.Lock()
	if b.failWith != nil {
		b.mu.Unlock()
		return b.failWith
	}
	b.published = append(b.published, data)
	var handlers []func([]byte)
	for _, s := range b.subs[subject] {
		if s.active {
			handlers = append(handlers, s.handler)
		}
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(data)
	}
	return nil
}

func (b *memBus) Subscribe(subject string, handler func([]byte)) (func() error, error) {
	s := &memSub{handler: handler, active: true}
	b.mu.Lock()
	b.subs[subject] = append(b.subs[subject], s)
	b.mu.Unlock()
	return func() error {
		b.mu.Lock()
		s.active = false
		b.mu.Unlock()
		return nil
	}, nil
}

type memHistory struct {
	mu      sync.Mutex
	stored  map[string][]Message
	loadErr error
}

func (h *memHistory) Load(_ context.Context, roomID string) ([]Message, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.loadErr != nil {
		return nil, h.loadErr
	}
	return append([]Message(nil), h.stored[roomID]...), nil
}

func (h *memHistory) Save(_ context.Context, m Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stored == nil {
		h.stored = make(map[string][]Message)
	}
	h.stored[m.RoomID] = append(h.stored[m.RoomID], m)
	return nil
}

func newTestRoom(bus Bus, history History, clock clockwork.Clock) *Room {
	return NewRoom(RoomOptions{
		RoomID:     "room-1",
		SenderID:   "p1",
		SenderName: "Ana",
		Bus:        bus,
		History:    history,
		Cache:      NewCache(CacheOptions{Clock: clock}),
		Clock:      clock,
		Logger:     zerolog.Nop(),
	})
}

func TestRoom_SendShowsOnceDespiteEcho(t *testing.T) {
	bus := newMemBus()
	room := newTestRoom(bus, nil, clockwork.NewFakeClockAt(epoch))
	if err := room.Join(context.Background()); err != nil {
		t.Fatalf("Join: %v", err)
	}

	if _, err := room.Send(context.Background(), "  bom dia "); err != nil {
		t.Fatalf("Send: %v", err)
	}
	got := room.Messages()
	if len(got) != 1 {
		t.Fatalf("messages = %d, want 1 (echo should be dropped)", len(got))
	}
	if got[0].Text != "bom dia" || got[0].SenderName != "Ana" || got[0].ID == "" {
		t.Fatalf("message = %+v", got[0])
	}
	if len(bus.published) != 1 {
		t.Fatalf("published = %d, want 1", len(bus.published))
	}
}

func TestRoom_ServerStampedEchoWithinWindowIsDropped(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	bus := newMemBus()
	room := newTestRoom(bus, nil, clock)
	_ = room.Join(context.Background())

	room.Cache().Append("room-1", msg("local", "p1", "hi", epoch))
	echo, _ := Encode(msg("server-id", "p1", "hi", epoch.Add(1500*time.Millisecond)))
	_ = bus.Publish(Subject("room-1"), echo)

	if got := len(room.Messages()); got != 1 {
		t.Fatalf("messages = %d, want 1", got)
	}
}

func TestRoom_ReceivesOthersAndMalformed(t *testing.T) {
	bus := newMemBus()
	room := newTestRoom(bus, nil, clockwork.NewFakeClockAt(epoch))
	changes := 0
	room.OnChange(func() { changes++ })
	_ = room.Join(context.Background())

	data, _ := Encode(msg("m1", "doctor", "Pode entrar", epoch))
	_ = bus.Publish(Subject("room-1"), data)
	_ = bus.Publish(Subject("room-1"), []byte("not json"))
	_ = bus.Publish(Subject("room-2"), data)

	got := room.Messages()
	if len(got) != 2 {
		t.Fatalf("messages = %d, want 2", len(got))
	}
	if !got[1].Raw || got[1].Text != "not json" {
		t.Fatalf("raw message = %+v", got[1])
	}
	if changes != 2 {
		t.Fatalf("changes = %d, want 2", changes)
	}
}

func TestRoom_JoinReplaysHistoryWithoutDuplicates(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	history := &memHistory{}
	_ = history.Save(context.Background(), msg("h1", "doctor", "one", epoch))
	_ = history.Save(context.Background(), msg("h2", "p1", "two", epoch.Add(time.Minute)))

	room := newTestRoom(newMemBus(), history, clock)
	if err := room.Join(context.Background()); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if got := len(room.Messages()); got != 2 {
		t.Fatalf("after join = %d, want 2", got)
	}

	// Reconnect replays the same history again.
	_ = room.Leave()
	if err := room.Join(context.Background()); err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if got := len(room.Messages()); got != 2 {
		t.Fatalf("after rejoin = %d, want 2", got)
	}
}

func TestRoom_HistoryFailureKeepsRoomUsable(t *testing.T) {
	room := newTestRoom(newMemBus(), &memHistory{loadErr: errors.New("redis down")}, clockwork.NewFakeClockAt(epoch))
	if err := room.Join(context.Background()); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if _, err := room.Send(context.Background(), "hi"); err != nil {
		t.Fatalf("Send: %v", err)
	}
}

func TestRoom_SendSavesHistory(t *testing.T) {
	history := &memHistory{}
	room := newTestRoom(newMemBus(), history, clockwork.NewFakeClockAt(epoch))
	_ = room.Join(context.Background())
	_, _ = room.Send(context.Background(), "hi")

	stored, _ := history.Load(context.Background(), "room-1")
	if len(stored) != 1 || stored[0].Text != "hi" {
		t.Fatalf("stored = %+v", stored)
	}
}

func TestRoom_SendErrors(t *testing.T) {
	bus := newMemBus()
	room := newTestRoom(bus, nil, clockwork.NewFakeClockAt(epoch))

	if _, err := room.Send(context.Background(), "hi"); !errors.Is(err, ErrNotJoined) {
		t.Fatalf("before join err = %v, want ErrNotJoined", err)
	}
	_ = room.Join(context.Background())
	if _, err := room.Send(context.Background(), "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("blank err = %v, want ErrEmptyMessage", err)
	}

	bus.failWith = errors.New("nats down")
	if _, err := room.Send(context.Background(), "hi"); err == nil {
		t.Fatal("expected publish error")
	}
	if got := len(room.Messages()); got != 1 {
		t.Fatalf("local message should stay visible, got %d", got)
	}
}

func TestRoom_LeaveStopsDelivery(t *testing.T) {
	bus := newMemBus()
	room := newTestRoom(bus, nil, clockwork.NewFakeClockAt(epoch))
	_ = room.Join(context.Background())
	if err := room.Leave(); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if err := room.Leave(); err != nil {
		t.Fatalf("second Leave: %v", err)
	}

	data, _ := Encode(msg("m1", "doctor", "hello", epoch))
	_ = bus.Publish(Subject("room-1"), data)
	if got := len(room.Messages()); got != 0 {
		t.Fatalf("messages after leave = %d, want 0", got)
	}
}

func TestRoom_ResendWithinWindowIsNotPublished(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	bus := newMemBus()
	history := &memHistory{}
	room := newTestRoom(bus, history, clock)
	_ = room.Join(context.Background())

	if _, err := room.Send(context.Background(), "hi"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	clock.Advance(time.Second)
	if _, err := room.Send(context.Background(), "hi"); !errors.Is(err, ErrDuplicateMessage) {
		t.Fatalf("resend err = %v, want ErrDuplicateMessage", err)
	}
	if len(bus.published) != 1 {
		t.Fatalf("published = %d, want 1", len(bus.published))
	}
	stored, _ := history.Load(context.Background(), "room-1")
	if len(stored) != 1 {
		t.Fatalf("stored = %d, want 1", len(stored))
	}

	clock.Advance(DedupWindow)
	if _, err := room.Send(context.Background(), "hi"); err != nil {
		t.Fatalf("send after window: %v", err)
	}
	if got := len(room.Messages()); got != 2 {
		t.Fatalf("messages = %d, want 2", got)
	}
}

func TestRoom_LeaveClearsPrivateCacheOnly(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)

	private := NewRoom(RoomOptions{RoomID: "room-1", SenderID: "p1", Bus: newMemBus(), Clock: clock, Logger: zerolog.Nop()})
	_ = private.Join(context.Background())
	_, _ = private.Send(context.Background(), "hi")
	_ = private.Leave()
	if got := len(private.Messages()); got != 0 {
		t.Fatalf("private cache after leave = %d, want 0", got)
	}

	shared := newTestRoom(newMemBus(), nil, clock)
	_ = shared.Join(context.Background())
	_, _ = shared.Send(context.Background(), "hi")
	_ = shared.Leave()
	if got := len(shared.Messages()); got != 1 {
		t.Fatalf("shared cache after leave = %d, want 1", got)
	}
}
