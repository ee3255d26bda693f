package chat

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// HistoryPrefix is the Redis key prefix for room history lists.
const HistoryPrefix = "portalwatch:chat:"

const (
	defaultHistoryTTL = 24 * time.Hour
	defaultHistoryCap = 200
)

// History persists messages so a (re)joining client can replay them.
type History interface {
	Load(ctx context.Context, roomID string) ([]Message, error)
	Save(ctx context.Context, m Message) error
}

// RedisHistory keeps each room as a capped Redis list with a TTL that is
// refreshed on every write.
type RedisHistory struct {
	client *redis.Client
	ttl    time.Duration
	max    int64
}

// NewRedisHistory wraps an existing client. Zero ttl or max use defaults.
func NewRedisHistory(client *redis.Client, ttl time.Duration, max int) *RedisHistory {
	if ttl <= 0 {
		ttl = defaultHistoryTTL
	}
	if max <= 0 {
		max = defaultHistoryCap
	}
	return &RedisHistory{client: client, ttl: ttl, max: int64(max)}
}

// DialRedisHistory connects to addr and verifies the connection.
func DialRedisHistory(ctx context.Context, addr string, ttl time.Duration, max int) (*RedisHistory, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("chat history: redis connection failed: %w", err)
	}
	return NewRedisHistory(client, ttl, max), nil
}

// Save appends m to its room list.
func (h *RedisHistory) Save(ctx context.Context, m Message) error {
	data, err := Encode(m)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	key := HistoryPrefix + m.RoomID

	pipe := h.client.Pipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -h.max, -1)
	pipe.Expire(ctx, key, h.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save history %s: %w", m.RoomID, err)
	}
	return nil
}

// Load returns the room's stored messages, oldest first. Entries that fail
// to decode come back as raw text messages.
func (h *RedisHistory) Load(ctx context.Context, roomID string) ([]Message, error) {
	items, err := h.client.LRange(ctx, HistoryPrefix+roomID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load history %s: %w", roomID, err)
	}
	return decodeHistory(items, roomID, time.Now()), nil
}

// decodeHistory decodes stored items. Undecodable items get an ID derived
// from their payload and how many identical payloads precede them, so
// replaying the list again yields the same IDs.
func decodeHistory(items []string, roomID string, loadedAt time.Time) []Message {
	out := make([]Message, 0, len(items))
	seen := make(map[string]int)
	for _, item := range items {
		m, malformed := Decode([]byte(item), roomID, loadedAt)
		if malformed {
			m.ID = rawID(item, seen[item])
			seen[item]++
		}
		out = append(out, m)
	}
	return out
}

func rawID(payload string, occurrence int) string {
	sum := sha256.Sum256([]byte(payload))
	return fmt.Sprintf("raw-%s-%d", hex.EncodeToString(sum[:8]), occurrence)
}

// Close releases the Redis client.
func (h *RedisHistory) Close() error {
	return h.client.Close()
}
