package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
)

var effectNamespace = uuid.MustParse("5b0b7c4e-9a53-4f4e-8f57-0c1d2a6a2f11")

// Effect is a side effect produced by a committed transition. Exactly one of
// Notification or Calendar is set, matching Kind.
type Effect struct {
	ID           string           `json:"id"`
	Kind         enums.EffectKind `json:"kind"`
	Notification *Notification    `json:"notification,omitempty"`
	Calendar     *CalendarRequest `json:"calendar,omitempty"`
}

type Notification struct {
	RecipientID int64                  `json:"recipient_id"`
	Kind        enums.NotificationKind `json:"kind"`
	Title       string                 `json:"title"`
	Message     string                 `json:"message"`
	Payload     map[string]any         `json:"payload,omitempty"`
}

type CalendarRequest struct {
	TransactionID int64     `json:"transaction_id"`
	Summary       string    `json:"summary"`
	Description   string    `json:"description"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	AttendeeIDs   []int64   `json:"attendee_ids"`
}

// CalendarEvent is what the calendar provider receives once attendee ids
// are resolved to emails.
type CalendarEvent struct {
	Summary        string    `json:"summary"`
	Description    string    `json:"description"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	AttendeeEmails []string  `json:"attendees"`
}

// EffectID derives a stable id from a transition key so that replaying the
// same transition yields the same effect id.
func EffectID(key string) string {
	return uuid.NewSHA1(effectNamespace, []byte(key)).String()
}

func NotificationEffect(key string, n Notification) Effect {
	return Effect{
		ID:           EffectID(key),
		Kind:         enums.EffectNotification,
		Notification: &n,
	}
}

func CalendarEffect(key string, req CalendarRequest) Effect {
	return Effect{
		ID:       EffectID(key),
		Kind:     enums.EffectCalendarEvent,
		Calendar: &req,
	}
}

// StoredNotification is a notification persisted in the in-app inbox.
type StoredNotification struct {
	ID          int64                  `json:"id"`
	EffectID    string                 `json:"effect_id"`
	RecipientID int64                  `json:"recipient_id"`
	Kind        enums.NotificationKind `json:"kind"`
	Title       string                 `json:"title"`
	Message     string                 `json:"message"`
	Payload     map[string]any         `json:"payload,omitempty"`
	ReadAt      *time.Time             `json:"read_at,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}
