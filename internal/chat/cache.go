package chat

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DedupWindow is how far apart two otherwise identical messages from the same
// sender must be to both be shown.
const DedupWindow = 2 * time.Second

const (
	defaultMaxRooms    = 16
	defaultMaxAge      = 6 * time.Hour
	defaultMaxMessages = 500
)

// CacheOptions bound the cache.
type CacheOptions struct {
	MaxRooms    int           // rooms kept; least recently touched is evicted
	MaxAge      time.Duration // idle rooms older than this are pruned
	MaxMessages int           // per room; oldest dropped first
	Clock       clockwork.Clock
}

// Cache keeps chat messages per room for the lifetime of the process. It is
// shared by every view of a room so that re-opening the chat does not lose
// history.
type Cache struct {
	mu    sync.Mutex
	opts  CacheOptions
	rooms map[string]*roomLog
}

type roomLog struct {
	messages []Message
	touched  time.Time
}

// NewCache creates an empty cache, filling defaults.
func NewCache(opts CacheOptions) *Cache {
	if opts.MaxRooms <= 0 {
		opts.MaxRooms = defaultMaxRooms
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = defaultMaxAge
	}
	if opts.MaxMessages <= 0 {
		opts.MaxMessages = defaultMaxMessages
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Cache{opts: opts, rooms: make(map[string]*roomLog)}
}

// Append adds m to its room in chronological order. It returns false when m
// duplicates a message already held: same id, or same sender and text within
// DedupWindow.
func (c *Cache) Append(roomID string, m Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.opts.Clock.Now()
	c.pruneLocked(now)

	log, ok := c.rooms[roomID]
	if !ok {
		log = &roomLog{}
		c.rooms[roomID] = log
		c.evictLocked(roomID)
	}
	log.touched = now

	for _, existing := range log.messages {
		if duplicate(existing, m) {
			return false
		}
	}

	i := len(log.messages)
	for i > 0 && log.messages[i-1].SentAt.After(m.SentAt) {
		i--
	}
	log.messages = append(log.messages, Message{})
	copy(log.messages[i+1:], log.messages[i:])
	log.messages[i] = m

	if over := len(log.messages) - c.opts.MaxMessages; over > 0 {
		log.messages = append([]Message(nil), log.messages[over:]...)
	}
	return true
}

// Messages returns a copy of the room's messages, oldest first.
func (c *Cache) Messages(roomID string) []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	log, ok := c.rooms[roomID]
	if !ok {
		return []Message{}
	}
	log.touched = c.opts.Clock.Now()
	out := make([]Message, len(log.messages))
	copy(out, log.messages)
	return out
}

// Rooms returns the number of rooms held.
func (c *Cache) Rooms() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rooms)
}

// Prune drops rooms idle for longer than MaxAge and returns how many went.
func (c *Cache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pruneLocked(c.opts.Clock.Now())
}

// Forget removes a room.
func (c *Cache) Forget(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, roomID)
}

func (c *Cache) pruneLocked(now time.Time) int {
	pruned := 0
	for id, log := range c.rooms {
		if now.Sub(log.touched) > c.opts.MaxAge {
			delete(c.rooms, id)
			pruned++
		}
	}
	return pruned
}

// evictLocked drops least recently touched rooms other than keep until the
// cache fits MaxRooms.
func (c *Cache) evictLocked(keep string) {
	for len(c.rooms) > c.opts.MaxRooms {
		var oldestID string
		var oldest time.Time
		for id, log := range c.rooms {
			if id == keep {
				continue
			}
			if oldestID == "" || log.touched.Before(oldest) {
				oldestID, oldest = id, log.touched
			}
		}
		if oldestID == "" {
			return
		}
		delete(c.rooms, oldestID)
	}
}

func duplicate(a, b Message) bool {
	if a.ID != "" && a.ID == b.ID {
		return true
	}
	if a.SenderID != b.SenderID || a.Text != b.Text {
		return false
	}
	d := a.SentAt.Sub(b.SentAt)
	if d < 0 {
		d = -d
	}
	return d <= DedupWindow
}
