package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "CONTENT_SAVED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

const (
	// ContentSaved is emitted after an editor revision is written to storage.
	ContentSaved = "CONTENT_SAVED"
	// ContentDeleted is emitted when a content row is soft deleted.
	ContentDeleted = "CONTENT_DELETED"
)

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewContentSaved builds the event the persistence worker emits.
func NewContentSaved(contentID, sessionID string, entity string, version int) BaseEvent {
	return BaseEvent{
		Type: ContentSaved,
		Data: map[string]interface{}{
			"content_id": contentID,
			"session_id": sessionID,
			"entity":     entity,
			"version":    version,
		},
		OccurredAt: time.Now(),
	}
}
