package chatcore

// Event type constants. The names follow the Anthropic messages streaming
// protocol so a bridge can forward events to an SSE client unchanged.
const (
	EventMessageStart = "message_start"
	EventBlockStart   = "content_block_start"
	EventBlockDelta   = "content_block_delta"
	EventBlockStop    = "content_block_stop"
	EventMessageDelta = "message_delta"
	EventMessageStop  = "message_stop"
)

// Block type constants
const (
	BlockTypeText     = "text"     // Substantive answer content
	BlockTypeThinking = "thinking" // Ephemeral progress narration
)

// Delta type constants for content_block_delta events
const (
	DeltaTypeText      = "text_delta"
	DeltaTypeThinking  = "thinking_delta"
	DeltaTypeSignature = "signature_delta" // Opaque pass-through signature value
)

// Stop reason constants for message_delta events
const (
	StopReasonEndTurn   = "end_turn"
	StopReasonMaxTokens = "max_tokens"
)

// Event is a single entry in a stream session's event log. Exactly one
// payload field is non-nil, the one named after Type (an
// EventBlockDelta event carries BlockDelta, and so on).
//
// Events are plain data: serialization and transport belong to the
// EventSink implementation consuming them (see the sinks package).
type Event struct {
	Type string

	MessageStart *MessageStart
	BlockStart   *BlockStart
	BlockDelta   *BlockDelta
	BlockStop    *BlockStop
	MessageDelta *MessageDelta
	MessageStop  *MessageStop
}

// Payload returns the non-nil payload for this event, or nil if the
// event is malformed. Useful for sinks that serialize events generically.
func (e Event) Payload() any {
	switch e.Type {
	case EventMessageStart:
		return e.MessageStart
	case EventBlockStart:
		return e.BlockStart
	case EventBlockDelta:
		return e.BlockDelta
	case EventBlockStop:
		return e.BlockStop
	case EventMessageDelta:
		return e.MessageDelta
	case EventMessageStop:
		return e.MessageStop
	default:
		return nil
	}
}

// MessageStart opens a stream session. Content is always empty at this
// point; it is a placeholder so clients can initialize an empty message.
type MessageStart struct {
	Type    string      `json:"type"`
	Message MessageInfo `json:"message"`
}

// MessageInfo carries the session-level metadata sent with message_start.
type MessageInfo struct {
	ID           string  `json:"id"`
	Type         string  `json:"type"` // always "message"
	Role         string  `json:"role"` // always "assistant"
	Content      []any   `json:"content"`
	Model        string  `json:"model"`
	StopReason   *string `json:"stop_reason"`
	StopSequence *string `json:"stop_sequence"`
	Usage        Usage   `json:"usage"`
}

// Usage carries token counts. The stream manager itself does no token
// accounting and always reports zeros; callers that want real usage
// attach it out of band (see jobchat).
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// BlockStart opens a new content block at the given index.
type BlockStart struct {
	Type         string    `json:"type"`
	Index        int       `json:"index"`
	ContentBlock BlockInfo `json:"content_block"`
}

// BlockInfo describes the block being opened. Exactly one of Text or
// Thinking is set (to the empty string) depending on the block type.
type BlockInfo struct {
	Type     string  `json:"type"`
	Text     *string `json:"text,omitempty"`
	Thinking *string `json:"thinking,omitempty"`
}

// BlockDelta appends incremental content to an open block.
type BlockDelta struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
	Delta Delta  `json:"delta"`
}

// Delta is the payload of a content_block_delta event.
// Exactly one of Text, Thinking, or Signature is set, matching Type.
type Delta struct {
	Type      string  `json:"type"`
	Text      *string `json:"text,omitempty"`
	Thinking  *string `json:"thinking,omitempty"`
	Signature *string `json:"signature,omitempty"`
}

// BlockStop closes the block at the given index. After this event the
// index is never referenced again within the session.
type BlockStop struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// MessageDelta carries the stop reason and final output usage.
type MessageDelta struct {
	Type  string      `json:"type"`
	Delta StopDelta   `json:"delta"`
	Usage OutputUsage `json:"usage"`
}

// StopDelta is the delta payload of a message_delta event.
type StopDelta struct {
	StopReason   string  `json:"stop_reason"`
	StopSequence *string `json:"stop_sequence"`
}

// OutputUsage is the usage payload of a message_delta event.
type OutputUsage struct {
	OutputTokens int `json:"output_tokens"`
}

// MessageStop is the final event of every well-formed session.
type MessageStop struct {
	Type string `json:"type"`
}

// IsTextDelta returns true if this delta carries answer text.
func (d *BlockDelta) IsTextDelta() bool {
	return d.Delta.Type == DeltaTypeText && d.Delta.Text != nil
}

// IsThinkingDelta returns true if this delta carries thinking narration.
func (d *BlockDelta) IsThinkingDelta() bool {
	return d.Delta.Type == DeltaTypeThinking && d.Delta.Thinking != nil
}

// IsSignatureDelta returns true if this delta carries a signature value.
func (d *BlockDelta) IsSignatureDelta() bool {
	return d.Delta.Type == DeltaTypeSignature && d.Delta.Signature != nil
}
