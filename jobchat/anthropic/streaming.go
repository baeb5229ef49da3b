package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	chatcore "github.com/haowjy/meridian-chat-go"
	"github.com/haowjy/meridian-chat-go/jobchat"
)

// Stream produces a streaming response from Claude.
// Returns a channel that emits StreamChunks as deltas arrive from the API.
//
// Claude streams thinking incrementally, but the chat workflow narrates
// thinking as atomic chunks; thinking deltas are therefore accumulated
// per block and released as one chunk when the block closes.
func (g *Generator) Stream(ctx context.Context, req *jobchat.Request) (<-chan jobchat.StreamChunk, error) {
	if !g.SupportsModel(req.Model) {
		return nil, &chatcore.ModelError{
			Model:     req.Model,
			Generator: g.Name().String(),
			Reason:    "model not supported by Anthropic (must start with 'claude-')",
			Err:       chatcore.ErrInvalidModel,
		}
	}

	params := buildMessageParams(req, true)

	// Buffered to prevent blocking the SDK reader on a slow consumer.
	chunkChan := make(chan jobchat.StreamChunk, 10)

	go func() {
		defer close(chunkChan)

		stream := g.client.Messages.NewStreaming(ctx, params)

		// Accumulator for final message metadata
		message := anthropic.Message{}

		var thinking strings.Builder

		send := func(chunk jobchat.StreamChunk) bool {
			select {
			case <-ctx.Done():
				chunkChan <- jobchat.StreamChunk{Err: ctx.Err()}
				return false
			case chunkChan <- chunk:
				return true
			}
		}

		for stream.Next() {
			event := stream.Current()

			if err := message.Accumulate(event); err != nil {
				chunkChan <- jobchat.StreamChunk{
					Err: fmt.Errorf("failed to accumulate message: %w", err),
				}
				return
			}

			switch e := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				switch e.Delta.Type {
				case "text_delta":
					text := e.Delta.Text
					if !send(jobchat.StreamChunk{Text: &text}) {
						return
					}
				case "thinking_delta":
					thinking.WriteString(e.Delta.Thinking)
				}

			case anthropic.ContentBlockStopEvent:
				if thinking.Len() > 0 {
					narration := thinking.String()
					thinking.Reset()
					if !send(jobchat.StreamChunk{Thinking: &narration}) {
						return
					}
				}
			}
		}

		if err := stream.Err(); err != nil {
			chunkChan <- jobchat.StreamChunk{
				Err: fmt.Errorf("anthropic streaming error: %w", err),
			}
			return
		}

		send(jobchat.StreamChunk{Result: convertMessage(&message)})
	}()

	return chunkChan, nil
}
