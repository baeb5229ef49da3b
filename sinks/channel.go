package sinks

import (
	"context"

	chatcore "github.com/haowjy/meridian-chat-go"
)

// ChannelSink forwards events over a Go channel, for consumers that
// process a session concurrently with its production. Emit blocks when
// the channel is full, which backpressures the producer; cancel the
// context to detach a slow or abandoned consumer.
type ChannelSink struct {
	ctx context.Context
	ch  chan chatcore.Event
}

// NewChannelSink creates a channel sink with the given buffer size.
// A zero buffer makes every Emit rendezvous with a receive.
func NewChannelSink(ctx context.Context, buffer int) *ChannelSink {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ChannelSink{
		ctx: ctx,
		ch:  make(chan chatcore.Event, buffer),
	}
}

// Events returns the receive side of the sink.
func (s *ChannelSink) Events() <-chan chatcore.Event {
	return s.ch
}

// Emit delivers the event, or returns the context error if the consumer
// is gone.
func (s *ChannelSink) Emit(event chatcore.Event) error {
	select {
	case s.ch <- event:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

// Close closes the event channel. Call it after the producing session
// has ended; consumers ranging over Events() terminate when both the
// buffer drains and the channel is closed.
func (s *ChannelSink) Close() {
	close(s.ch)
}
