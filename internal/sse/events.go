// Package sse implements Server-Sent Events for live import progress and
// server-wide notifications.
package sse

import (
	"time"
)

// Imports stream their per-row progress on the import request's own
// response; the broadcast manager here carries the cross-client
// notifications (import lifecycle, catalog additions, heartbeats).

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventImportStarted signals that a user's import began.
	EventImportStarted EventType = "import.started"
	// EventImportCompleted signals that a user's import finished.
	EventImportCompleted EventType = "import.completed"

	// EventBookCreated signals a new catalog entry.
	EventBookCreated EventType = "catalog.book_created"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// Filtering field for multi-user support. When set, the event is only
	// delivered to clients connected as this user. Empty string means
	// "broadcast to all".
	UserID string `json:"-"`
}

// ImportStartedEventData is the data payload for import.started events.
type ImportStartedEventData struct {
	StartedAt time.Time `json:"started_at"`
	Format    string    `json:"format"`
}

// ImportCompletedEventData is the data payload for import.completed events.
type ImportCompletedEventData struct {
	CompletedAt   time.Time `json:"completed_at"`
	Format        string    `json:"format"`
	UploadedBooks int       `json:"uploaded_books"`
	FailedBooks   int       `json:"failed_books"`
}

// BookCreatedEventData is the data payload for catalog.book_created events.
type BookCreatedEventData struct {
	BookID string `json:"book_id"`
	Title  string `json:"title"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewImportStartedEvent creates an import.started event.
func NewImportStartedEvent(format string) Event {
	return Event{
		Type: EventImportStarted,
		Data: ImportStartedEventData{
			Format:    format,
			StartedAt: time.Now(),
		},
		Timestamp: time.Now(),
	}
}

// NewImportCompletedEvent creates an import.completed event.
func NewImportCompletedEvent(format string, uploaded, failed int) Event {
	return Event{
		Type: EventImportCompleted,
		Data: ImportCompletedEventData{
			Format:        format,
			UploadedBooks: uploaded,
			FailedBooks:   failed,
			CompletedAt:   time.Now(),
		},
		Timestamp: time.Now(),
	}
}

// NewBookCreatedEvent creates a catalog.book_created event.
func NewBookCreatedEvent(bookID, title string) Event {
	return Event{
		Type: EventBookCreated,
		Data: BookCreatedEventData{
			BookID: bookID,
			Title:  title,
		},
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type: EventHeartbeat,
		Data: HeartbeatEventData{
			ServerTime: time.Now(),
		},
		Timestamp: time.Now(),
	}
}
