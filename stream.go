package chatcore

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DefaultModel is reported in message_start when no model is configured.
var DefaultModel = "claude-3-7-sonnet-20250219"

// DefaultSignature is emitted as the signature_delta value when the caller
// does not supply one. It is an opaque pass-through placeholder; clients
// that verify signatures treat it as "unsigned".
const DefaultSignature = "signature_filler"

// EventSink receives the events produced by a StreamManager, in order.
// Implementations may forward them over a channel, a network write, or
// collect them in memory (see the sinks package). Emit must preserve
// ordering within one session: clients reconstruct block membership from
// event order alone.
type EventSink interface {
	Emit(event Event) error
}

// ContentBlock is one open-or-closed segment of streamed output.
type ContentBlock struct {
	// Index is assigned at creation, monotonically increasing, and never
	// reused within a session.
	Index int

	// BlockType is BlockTypeThinking or BlockTypeText.
	BlockType string

	// IsOpen is true from creation until the block's content_block_stop
	// event has been emitted.
	IsOpen bool
}

// StreamManager turns a sequence of SendThinking / SendText / EndStream
// calls into a well-formed stream of lifecycle-tagged events, hiding
// content block bookkeeping from the caller.
//
// A StreamManager is single-use: one instance per response. It is not
// safe for concurrent use; all state is instance-local, so independent
// sessions may run concurrently without coordination.
//
// Example usage:
//
//	mgr := chatcore.NewStreamManager("", sink)
//	mgr.SendThinking("Researching...", "")
//	mgr.SendText("Here's what I found")
//	mgr.SendText(" so far.")
//	mgr.EndStream("")
//
// Callers must guarantee EndStream runs on every exit path, success or
// failure; it is the only call that closes the event log.
type StreamManager struct {
	model string
	sink  EventSink

	messageID string
	started   bool
	ended     bool

	blocks    []*ContentBlock
	nextIndex int
}

// NewStreamManager creates a stream manager that forwards events to sink.
// An empty model falls back to DefaultModel.
func NewStreamManager(model string, sink EventSink) *StreamManager {
	if model == "" {
		model = DefaultModel
	}
	return &StreamManager{
		model: model,
		sink:  sink,
	}
}

// MessageID returns the generated message id, or "" before StartStream.
func (m *StreamManager) MessageID() string {
	return m.messageID
}

// Started reports whether message_start has been emitted.
func (m *StreamManager) Started() bool { return m.started }

// Ended reports whether message_stop has been emitted.
func (m *StreamManager) Ended() bool { return m.ended }

// Blocks returns a snapshot of every block created so far, in creation
// order. The returned slice is a copy; mutating it has no effect.
func (m *StreamManager) Blocks() []ContentBlock {
	out := make([]ContentBlock, len(m.blocks))
	for i, b := range m.blocks {
		out[i] = *b
	}
	return out
}

// StartStream begins the session by emitting message_start. Calling it a
// second time is a programming error and returns ErrStreamStarted. The
// Send methods call StartStream implicitly, so most callers never need to.
func (m *StreamManager) StartStream() error {
	if m.started {
		return ErrStreamStarted
	}
	m.messageID = newMessageID()
	m.started = true

	return m.emit(Event{
		Type: EventMessageStart,
		MessageStart: &MessageStart{
			Type: EventMessageStart,
			Message: MessageInfo{
				ID:      m.messageID,
				Type:    "message",
				Role:    "assistant",
				Content: []any{},
				Model:   m.model,
				Usage:   Usage{},
			},
		},
	})
}

// SendThinking emits a complete thinking block: block start, one
// thinking_delta carrying the full text, one signature_delta, block stop.
// Thinking is single-shot narration, never chunked. Any currently open
// block is closed first. An empty signature falls back to
// DefaultSignature.
//
// Returns ErrStreamEnded if the session already ended.
func (m *StreamManager) SendThinking(text, signature string) error {
	if m.ended {
		return ErrStreamEnded
	}
	if !m.started {
		if err := m.StartStream(); err != nil {
			return err
		}
	}
	if err := m.closeOpenBlocks(); err != nil {
		return err
	}
	if signature == "" {
		signature = DefaultSignature
	}

	block := m.openBlock(BlockTypeThinking)
	empty := ""
	if err := m.emit(Event{
		Type: EventBlockStart,
		BlockStart: &BlockStart{
			Type:  EventBlockStart,
			Index: block.Index,
			ContentBlock: BlockInfo{
				Type:     BlockTypeThinking,
				Thinking: &empty,
			},
		},
	}); err != nil {
		return err
	}

	if err := m.emit(Event{
		Type: EventBlockDelta,
		BlockDelta: &BlockDelta{
			Type:  EventBlockDelta,
			Index: block.Index,
			Delta: Delta{Type: DeltaTypeThinking, Thinking: &text},
		},
	}); err != nil {
		return err
	}

	if err := m.emit(Event{
		Type: EventBlockDelta,
		BlockDelta: &BlockDelta{
			Type:  EventBlockDelta,
			Index: block.Index,
			Delta: Delta{Type: DeltaTypeSignature, Signature: &signature},
		},
	}); err != nil {
		return err
	}

	return m.closeBlock(block)
}

// SendText emits a text fragment. The first call (or the first call after
// a thinking block) opens a new text block; consecutive calls append to
// the same block via additional text_delta events, so fragments coalesce
// into one growing block until something else intervenes.
//
// Returns ErrStreamEnded if the session already ended.
func (m *StreamManager) SendText(fragment string) error {
	if m.ended {
		return ErrStreamEnded
	}
	if !m.started {
		if err := m.StartStream(); err != nil {
			return err
		}
	}

	block := m.currentTextBlock()
	if block == nil {
		block = m.openBlock(BlockTypeText)
		empty := ""
		if err := m.emit(Event{
			Type: EventBlockStart,
			BlockStart: &BlockStart{
				Type:  EventBlockStart,
				Index: block.Index,
				ContentBlock: BlockInfo{
					Type: BlockTypeText,
					Text: &empty,
				},
			},
		}); err != nil {
			return err
		}
	}

	return m.emit(Event{
		Type: EventBlockDelta,
		BlockDelta: &BlockDelta{
			Type:  EventBlockDelta,
			Index: block.Index,
			Delta: Delta{Type: DeltaTypeText, Text: &fragment},
		},
	})
}

// EndStream closes every still-open block in block order, emits
// message_delta with the stop reason, then message_stop. It is a no-op
// if the session already ended or never started, so it is safe to defer
// unconditionally. An empty stopReason falls back to StopReasonEndTurn.
func (m *StreamManager) EndStream(stopReason string) error {
	if m.ended || !m.started {
		return nil
	}
	if stopReason == "" {
		stopReason = StopReasonEndTurn
	}

	if err := m.closeOpenBlocks(); err != nil {
		return err
	}

	if err := m.emit(Event{
		Type: EventMessageDelta,
		MessageDelta: &MessageDelta{
			Type:  EventMessageDelta,
			Delta: StopDelta{StopReason: stopReason},
			Usage: OutputUsage{},
		},
	}); err != nil {
		return err
	}

	if err := m.emit(Event{
		Type:        EventMessageStop,
		MessageStop: &MessageStop{Type: EventMessageStop},
	}); err != nil {
		return err
	}

	m.ended = true
	return nil
}

// openBlock creates and records a new block of the given type.
func (m *StreamManager) openBlock(blockType string) *ContentBlock {
	block := &ContentBlock{
		Index:     m.nextIndex,
		BlockType: blockType,
		IsOpen:    true,
	}
	m.nextIndex++
	m.blocks = append(m.blocks, block)
	return block
}

// currentTextBlock returns the open text block, if any. Thinking blocks
// are closed within SendThinking, so at most one block is ever open.
func (m *StreamManager) currentTextBlock() *ContentBlock {
	for i := len(m.blocks) - 1; i >= 0; i-- {
		if m.blocks[i].IsOpen && m.blocks[i].BlockType == BlockTypeText {
			return m.blocks[i]
		}
	}
	return nil
}

// closeBlock emits content_block_stop for the block and marks it closed.
func (m *StreamManager) closeBlock(block *ContentBlock) error {
	if !block.IsOpen {
		return nil
	}
	if err := m.emit(Event{
		Type: EventBlockStop,
		BlockStop: &BlockStop{
			Type:  EventBlockStop,
			Index: block.Index,
		},
	}); err != nil {
		return err
	}
	block.IsOpen = false
	return nil
}

// closeOpenBlocks closes every open block in block order.
func (m *StreamManager) closeOpenBlocks() error {
	for _, block := range m.blocks {
		if block.IsOpen {
			if err := m.closeBlock(block); err != nil {
				return err
			}
		}
	}
	return nil
}

// emit forwards an event to the sink, wrapping sink failures so the
// caller can tell transport errors from contract errors.
func (m *StreamManager) emit(event Event) error {
	if m.sink == nil {
		return nil
	}
	if err := m.sink.Emit(event); err != nil {
		return fmt.Errorf("emit %s: %w", event.Type, err)
	}
	return nil
}

// newMessageID generates an id of the form msg_<24 hex chars>, unique
// per session.
func newMessageID() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "msg_" + hex[:24]
}
