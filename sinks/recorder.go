package sinks

import (
	"strings"
	"sync"

	chatcore "github.com/haowjy/meridian-chat-go"
)

// Recorder collects every emitted event in memory. It reconstructs the
// final text and thinking content from the deltas, which makes it useful
// both in tests and for callers that want the assembled response after
// streaming it elsewhere (wrap it in a Tee with another sink).
type Recorder struct {
	mu     sync.Mutex
	events []chatcore.Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit appends the event to the log.
func (r *Recorder) Emit(event chatcore.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a snapshot of the recorded events in emit order.
func (r *Recorder) Events() []chatcore.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]chatcore.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Text reassembles the answer text from all text deltas, in order.
func (r *Recorder) Text() string {
	return r.collect(func(d *chatcore.BlockDelta) (string, bool) {
		if d.IsTextDelta() {
			return *d.Delta.Text, true
		}
		return "", false
	})
}

// Thinking reassembles the thinking narration from all thinking deltas.
func (r *Recorder) Thinking() string {
	return r.collect(func(d *chatcore.BlockDelta) (string, bool) {
		if d.IsThinkingDelta() {
			return *d.Delta.Thinking, true
		}
		return "", false
	})
}

// StopReason returns the stop reason from the message_delta event, or
// "" if the session has not ended.
func (r *Recorder) StopReason() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.events {
		if ev.Type == chatcore.EventMessageDelta {
			return ev.MessageDelta.Delta.StopReason
		}
	}
	return ""
}

func (r *Recorder) collect(pick func(*chatcore.BlockDelta) (string, bool)) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sb strings.Builder
	for _, ev := range r.events {
		if ev.Type != chatcore.EventBlockDelta {
			continue
		}
		if s, ok := pick(ev.BlockDelta); ok {
			sb.WriteString(s)
		}
	}
	return sb.String()
}

// Tee forwards each event to every sink in order, stopping at the first
// error. Use it to record a session while also streaming it to a client.
type Tee []chatcore.EventSink

// Emit forwards the event to each sink.
func (t Tee) Emit(event chatcore.Event) error {
	for _, sink := range t {
		if err := sink.Emit(event); err != nil {
			return err
		}
	}
	return nil
}
