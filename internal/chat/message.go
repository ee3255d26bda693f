package chat

import (
	"encoding/json"
	"strings"
	"time"
)

// Message is one chat line in a telemedicine room.
type Message struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"roomId"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Text       string    `json:"text"`
	SentAt     time.Time `json:"sentAt"`

	// Raw marks a payload that could not be decoded and is shown verbatim.
	Raw bool `json:"-"`
}

// Encode serializes a message for the bus and history.
func Encode(m Message) ([]byte, error) {
	return json.Marshal(m)
}

// Decode parses a payload. Anything that is not a JSON message with text is
// kept as plain display text and reported as malformed rather than dropped.
func Decode(data []byte, roomID string, receivedAt time.Time) (Message, bool) {
	var m Message
	if err := json.Unmarshal(data, &m); err == nil && strings.TrimSpace(m.Text) != "" {
		if m.RoomID == "" {
			m.RoomID = roomID
		}
		if m.SentAt.IsZero() {
			m.SentAt = receivedAt
		}
		return m, false
	}
	return Message{
		RoomID: roomID,
		Text:   strings.TrimSpace(string(data)),
		SentAt: receivedAt,
		Raw:    true,
	}, true
}
