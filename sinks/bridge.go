// Package sinks provides EventSink implementations for the transports a
// stream session is typically forwarded over: an in-process bridge line
// protocol, SSE, Go channels, and an in-memory recorder for tests.
package sinks

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	chatcore "github.com/haowjy/meridian-chat-go"
)

// BridgeWriter writes events as line-oriented bridge frames:
//
//	EVENT:<event_type>:<json payload>\n
//
// This is the format the TypeScript bridge consumes on the worker's
// stdout before re-emitting events as SSE. Each frame is flushed
// immediately so the client sees deltas as they are produced, not when
// the worker exits.
type BridgeWriter struct {
	mu sync.Mutex
	w  *bufio.Writer
}

// NewBridgeWriter creates a bridge sink writing frames to w.
func NewBridgeWriter(w io.Writer) *BridgeWriter {
	return &BridgeWriter{w: bufio.NewWriter(w)}
}

// Emit writes one bridge frame and flushes it.
func (b *BridgeWriter) Emit(event chatcore.Event) error {
	payload := event.Payload()
	if payload == nil {
		return fmt.Errorf("bridge: event %q has no payload", event.Type)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("bridge: marshal %s: %w", event.Type, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := fmt.Fprintf(b.w, "EVENT:%s:%s\n", event.Type, data); err != nil {
		return fmt.Errorf("bridge: write %s: %w", event.Type, err)
	}
	return b.w.Flush()
}
