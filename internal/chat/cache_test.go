package chat

import (
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

var epoch = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func msg(id, sender, text string, at time.Time) Message {
	return Message{ID: id, RoomID: "room-1", SenderID: sender, Text: text, SentAt: at}
}

func TestCache_DedupWithinWindow(t *testing.T) {
	tests := []struct {
		name   string
		second Message
		want   bool
	}{
		{"same id", msg("a", "other", "different", epoch.Add(time.Hour)), false},
		{"same sender and text 1s later", msg("b", "p1", "hello", epoch.Add(time.Second)), false},
		{"same sender and text 2s earlier", msg("b", "p1", "hello", epoch.Add(-2*time.Second)), false},
		{"same sender and text 3s later", msg("b", "p1", "hello", epoch.Add(3*time.Second)), true},
		{"different sender", msg("b", "p2", "hello", epoch), true},
		{"different text", msg("b", "p1", "hello!", epoch), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCache(CacheOptions{Clock: clockwork.NewFakeClockAt(epoch)})
			if !c.Append("room-1", msg("a", "p1", "hello", epoch)) {
				t.Fatal("first append rejected")
			}
			if got := c.Append("room-1", tt.second); got != tt.want {
				t.Fatalf("Append = %v, want %v", got, tt.want)
			}
			wantLen := 1
			if tt.want {
				wantLen = 2
			}
			if got := len(c.Messages("room-1")); got != wantLen {
				t.Fatalf("len = %d, want %d", got, wantLen)
			}
		})
	}
}

func TestCache_ChronologicalOrder(t *testing.T) {
	c := NewCache(CacheOptions{Clock: clockwork.NewFakeClockAt(epoch)})
	c.Append("r", msg("3", "p", "third", epoch.Add(30*time.Second)))
	c.Append("r", msg("1", "p", "first", epoch.Add(10*time.Second)))
	c.Append("r", msg("2", "p", "second", epoch.Add(20*time.Second)))

	got := c.Messages("r")
	for i, want := range []string{"first", "second", "third"} {
		if got[i].Text != want {
			t.Fatalf("messages[%d] = %q, want %q", i, got[i].Text, want)
		}
	}
}

func TestCache_MessagesIsCopy(t *testing.T) {
	c := NewCache(CacheOptions{Clock: clockwork.NewFakeClockAt(epoch)})
	c.Append("r", msg("1", "p", "hi", epoch))
	got := c.Messages("r")
	got[0].Text = "changed"
	if c.Messages("r")[0].Text != "hi" {
		t.Fatal("Messages exposed internal slice")
	}
	if got := c.Messages("missing"); got == nil || len(got) != 0 {
		t.Fatalf("unknown room = %#v, want empty slice", got)
	}
}

func TestCache_EvictsLeastRecentlyTouchedRoom(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	c := NewCache(CacheOptions{MaxRooms: 2, Clock: clock})

	c.Append("a", msg("1", "p", "x", epoch))
	clock.Advance(time.Second)
	c.Append("b", msg("2", "p", "x", epoch))
	clock.Advance(time.Second)
	c.Messages("a") // touch a so b is the oldest
	clock.Advance(time.Second)
	c.Append("c", msg("3", "p", "x", epoch))

	if c.Rooms() != 2 {
		t.Fatalf("rooms = %d, want 2", c.Rooms())
	}
	if len(c.Messages("b")) != 0 {
		t.Fatal("room b should have been evicted")
	}
	if len(c.Messages("a")) != 1 || len(c.Messages("c")) != 1 {
		t.Fatal("rooms a and c should remain")
	}
}

func TestCache_PrunesIdleRooms(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	c := NewCache(CacheOptions{MaxAge: time.Minute, Clock: clock})

	c.Append("old", msg("1", "p", "x", epoch))
	clock.Advance(50 * time.Second)
	c.Append("new", msg("2", "p", "x", epoch))
	clock.Advance(20 * time.Second)

	if n := c.Prune(); n != 1 {
		t.Fatalf("Prune = %d, want 1", n)
	}
	if c.Rooms() != 1 {
		t.Fatalf("rooms = %d, want 1", c.Rooms())
	}
}

func TestCache_CapsMessagesPerRoom(t *testing.T) {
	c := NewCache(CacheOptions{MaxMessages: 3, Clock: clockwork.NewFakeClockAt(epoch)})
	for i := 0; i < 5; i++ {
		c.Append("r", msg(fmt.Sprint(i), "p", fmt.Sprint("m", i), epoch.Add(time.Duration(i)*time.Minute)))
	}
	got := c.Messages("r")
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Text != "m2" {
		t.Fatalf("oldest kept = %q, want m2", got[0].Text)
	}
}

func TestDecode(t *testing.T) {
	at := epoch.Add(time.Minute)

	m, malformed := Decode([]byte(`{"id":"x","senderId":"p1","text":"oi","sentAt":"2026-03-02T09:00:00Z"}`), "r", at)
	if malformed || m.Raw {
		t.Fatal("valid payload reported malformed")
	}
	if m.RoomID != "r" || !m.SentAt.Equal(epoch) {
		t.Fatalf("decoded = %+v", m)
	}

	m, malformed = Decode([]byte("  plain text  "), "r", at)
	if !malformed || !m.Raw {
		t.Fatal("plain text should be malformed")
	}
	if m.Text != "plain text" || !m.SentAt.Equal(at) {
		t.Fatalf("raw = %+v", m)
	}

	if _, malformed := Decode([]byte(`{"id":"x"}`), "r", at); !malformed {
		t.Fatal("payload without text should be malformed")
	}
}
