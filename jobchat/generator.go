package jobchat

import (
	"context"
)

// GeneratorID represents a unique generator identifier.
// Using a typed constant prevents typos and provides compile-time safety.
type GeneratorID string

// Known generator identifiers
const (
	// GeneratorAnthropic is Anthropic's Claude API
	GeneratorAnthropic GeneratorID = "anthropic"

	// GeneratorLorem is the mock lorem generator for testing
	GeneratorLorem GeneratorID = "lorem"
)

// String returns the string representation of the generator ID
func (g GeneratorID) String() string {
	return string(g)
}

// IsValid returns true if the generator ID is a known generator
func (g GeneratorID) IsValid() bool {
	switch g {
	case GeneratorAnthropic, GeneratorLorem:
		return true
	default:
		return false
	}
}

// Request is a single generation call: a system message plus the
// conversation turns, oldest first.
type Request struct {
	// Model is the model identifier (e.g. "claude-3-haiku-20240307").
	Model string

	// System is the system message, empty for none.
	System string

	// Turns is the conversation, ending with the user's latest message.
	Turns []Turn

	// MaxTokens caps the response length. Zero means the generator's
	// default.
	MaxTokens int

	// Thinking asks the generator to narrate progress via thinking
	// chunks when streaming. Generators that cannot think ignore it.
	Thinking bool
}

// Response is a complete generation result.
type Response struct {
	// Text is the full response text.
	Text string

	// Model is the model that produced it (may differ from the request
	// if aliased).
	Model string

	// InputTokens and OutputTokens are the provider-reported counts,
	// zero when the provider does not report usage.
	InputTokens  int
	OutputTokens int

	// StopReason indicates why generation stopped (e.g. "end_turn",
	// "max_tokens").
	StopReason string
}

// StreamChunk is a single event in a streaming generation.
// Exactly one field is set:
//   - Thinking: a complete piece of progress narration
//   - Text: an incremental fragment of answer text
//   - Result: the final Response, sent once before the channel closes
//   - Err: a generation error; the channel closes after it
type StreamChunk struct {
	Thinking *string
	Text     *string
	Result   *Response
	Err      error
}

// Generator defines the interface all text generators must implement.
// This abstraction keeps the chat workflow independent of any provider
// SDK; see the anthropic and lorem subpackages for implementations.
type Generator interface {
	// Generate produces a complete response (blocking).
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Stream produces a streaming response. The returned channel emits
	// StreamChunks as they arrive and is closed when generation
	// completes or fails.
	//
	// Usage:
	//
	//	chunks, err := gen.Stream(ctx, req)
	//	if err != nil { return err }
	//	for chunk := range chunks {
	//	  if chunk.Err != nil { handle error }
	//	  if chunk.Text != nil { process fragment }
	//	  if chunk.Result != nil { generation complete }
	//	}
	Stream(ctx context.Context, req *Request) (<-chan StreamChunk, error)

	// Name returns the generator identifier.
	Name() GeneratorID

	// SupportsModel returns true if the generator supports the given model.
	SupportsModel(model string) bool
}
