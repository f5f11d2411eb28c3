package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is a domain event dispatched on the Bus.
type Event interface {
	EventType() string
	EventMeta() Meta
}

// Meta is embedded by every portal event. ProjectID names the project the
// change belongs to and is serialized at the top level of the payload.
type Meta struct {
	ID         uuid.UUID `json:"event_id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	ProjectID  uuid.UUID `json:"project_id"`
}

func newMeta(eventType string, projectID uuid.UUID) Meta {
	return Meta{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		ProjectID:  projectID,
	}
}

// EventType returns the event's type name.
func (m Meta) EventType() string { return m.Type }

// EventMeta returns the header itself.
func (m Meta) EventMeta() Meta { return m }
