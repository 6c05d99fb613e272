package sse

import (
	"encoding/json/v2"
	"fmt"
	"net/http"
)

// Stream writes SSE events directly on a single request's response.
// Unlike the broadcast Manager, a Stream is owned by one handler invocation
// and is not safe for concurrent use; callers serialize their own sends.
//
// The import endpoint answers the upload request itself with a Stream so
// progress events ride the same connection as the upload.
type Stream struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

// NewStream prepares w for event streaming and flushes the SSE headers.
func NewStream(w http.ResponseWriter) (*Stream, error) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		return nil, fmt.Errorf("flush sse headers: %w", err)
	}

	return &Stream{w: w, rc: rc}, nil
}

// Send writes one event in SSE wire format and flushes it to the client.
func (s *Stream) Send(eventType string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\n", eventType); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", jsonData); err != nil {
		return err
	}

	return s.rc.Flush()
}
