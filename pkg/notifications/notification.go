// Package notifications announces changes to the loaded documents
package notifications

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is the kind of change a notification reports
type Event string

const (
	EventCreated Event = "created"
	EventUpdated Event = "updated"
	EventDeleted Event = "deleted"
)

// Notification reports one change to a document
type Notification struct {
	ID         string    `json:"id"`
	Event      Event     `json:"event"`
	Message    string    `json:"message"`
	DocumentID string    `json:"document_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// New creates a notification with a fresh id
func New(event Event, message string) Notification {
	return Notification{
		ID:        uuid.New().String(),
		Event:     event,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// ForDocument creates the notification for a change to document id
func ForDocument(event Event, id string) Notification {
	n := New(event, fmt.Sprintf("api spec %q was %s", id, event))
	n.DocumentID = id
	return n
}
