package portal

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/julioseixas/portalwatch/internal/queue"
)

const portalTimestampLayout = "2006-01-02 15:04:05"

// Screen identifies one of the queue-tracking screens of the portal.
type Screen string

const (
	ScreenConsultation Screen = "consultation"
	ScreenEmergency    Screen = "emergency"
	ScreenTelemedicine Screen = "telemedicine"
)

// Screens lists the screens in menu order.
var Screens = []Screen{ScreenConsultation, ScreenEmergency, ScreenTelemedicine}

// ErrMissingContext is returned when a screen is opened without the
// parameters it needs. It is not retryable.
var ErrMissingContext = errors.New("missing screen context")

// ParseScreen maps a config or flag value to a Screen.
func ParseScreen(value string) (Screen, error) {
	switch Screen(strings.ToLower(strings.TrimSpace(value))) {
	case ScreenConsultation, "":
		return ScreenConsultation, nil
	case ScreenEmergency:
		return ScreenEmergency, nil
	case ScreenTelemedicine:
		return ScreenTelemedicine, nil
	}
	return "", fmt.Errorf("unknown screen %q", value)
}

// Title returns a display label for the screen.
func (s Screen) Title() string {
	switch s {
	case ScreenEmergency:
		return "Emergency"
	case ScreenTelemedicine:
		return "Telemedicine"
	default:
		return "Consultation"
	}
}

// Query selects the queue a screen tracks.
type Query struct {
	Screen     Screen
	AgendaID   string   // consultation screen
	PatientIDs []string // emergency and telemedicine screens
}

// Validate reports ErrMissingContext when the query lacks its screen's key.
func (q Query) Validate() error {
	switch q.Screen {
	case ScreenEmergency, ScreenTelemedicine:
		if len(q.patientIDs()) == 0 {
			return fmt.Errorf("%w: %s queue needs at least one patient id", ErrMissingContext, q.Screen)
		}
	case ScreenConsultation, "":
		if strings.TrimSpace(q.AgendaID) == "" {
			return fmt.Errorf("%w: consultation queue needs an agenda id", ErrMissingContext)
		}
	default:
		return fmt.Errorf("unknown screen %q", q.Screen)
	}
	return nil
}

func (q Query) patientIDs() []string {
	ids := make([]string, 0, len(q.PatientIDs))
	for _, id := range q.PatientIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Envelope mirrors the response wrapper used by every portal endpoint.
type Envelope struct {
	Success *bool         `json:"success"`
	Message string        `json:"message"`
	Data    []QueueRecord `json:"data"`
}

// QueueRecord describes a queue entry in transport form.
type QueueRecord struct {
	AttendanceID      string `json:"attendanceId"`
	ClientID          string `json:"clientId"`
	PatientName       string `json:"patientName"`
	ArrivalDate       string `json:"arrivalDate"`
	ArrivalTime       string `json:"arrivalTime"`
	ScheduledTime     string `json:"scheduledTime"`
	StatusCode        string `json:"statusCode"`
	StatusDescription string `json:"statusDescription"`
	Classification    string `json:"classification"`
	OrderedAt         string `json:"orderedAt"`
}

// Identity returns the key that correlates the record across polls.
func (r QueueRecord) Identity() string {
	return strings.TrimSpace(r.ClientID) + ":" + strings.TrimSpace(r.AttendanceID)
}

// ParsedOrderedAt returns the ordering timestamp when it parses.
func (r QueueRecord) ParsedOrderedAt() time.Time {
	return parseTime(r.OrderedAt)
}

// Entry converts the record to the queue model.
func (r QueueRecord) Entry() queue.Entry {
	arrival := strings.TrimSpace(strings.TrimSpace(r.ArrivalDate) + " " + strings.TrimSpace(r.ArrivalTime))
	return queue.Entry{
		ID:      r.Identity(),
		OwnerID: strings.TrimSpace(r.ClientID),
		Name:    strings.TrimSpace(r.PatientName),
		Fields: queue.Fields{
			Status:         strings.TrimSpace(r.StatusDescription),
			StatusCode:     strings.TrimSpace(r.StatusCode),
			Arrival:        arrival,
			Scheduled:      strings.TrimSpace(r.ScheduledTime),
			Classification: strings.TrimSpace(r.Classification),
		},
	}
}

// normalize turns records into a snapshot. Server order is kept unless every
// record carries an ordering timestamp, in which case records are stably
// sorted by it.
func normalize(records []QueueRecord, capturedAt time.Time) (queue.Snapshot, error) {
	ordered := make([]QueueRecord, len(records))
	copy(ordered, records)

	sortable := len(ordered) > 1
	for _, r := range ordered {
		if r.ParsedOrderedAt().IsZero() {
			sortable = false
			break
		}
	}
	if sortable {
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].ParsedOrderedAt().Before(ordered[j].ParsedOrderedAt())
		})
	}

	entries := make([]queue.Entry, 0, len(ordered))
	for _, r := range ordered {
		entries = append(entries, r.Entry())
	}
	return queue.NewSnapshot(entries, capturedAt)
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(portalTimestampLayout, value, time.Local); err == nil {
		return t
	}
	return time.Time{}
}
