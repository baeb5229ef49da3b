package sinks

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	chatcore "github.com/haowjy/meridian-chat-go"
)

// SSEWriter writes events as server-sent events:
//
//	event: <event_type>
//	data: <json payload>
//
// followed by a blank line. The event names and payloads match the
// Anthropic messages streaming wire format, so an existing Anthropic
// SSE client can consume the stream unchanged.
type SSEWriter struct {
	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
}

// NewSSEWriter creates an SSE sink writing to w. If w also implements
// http.Flusher (as an http.ResponseWriter does), each event is flushed
// to the client as it is written.
func NewSSEWriter(w io.Writer) *SSEWriter {
	s := &SSEWriter{w: w}
	if f, ok := w.(http.Flusher); ok {
		s.flusher = f
	}
	return s
}

// Emit writes one SSE frame.
func (s *SSEWriter) Emit(event chatcore.Event) error {
	payload := event.Payload()
	if payload == nil {
		return fmt.Errorf("sse: event %q has no payload", event.Type)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("sse: marshal %s: %w", event.Type, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
		return fmt.Errorf("sse: write %s: %w", event.Type, err)
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}
