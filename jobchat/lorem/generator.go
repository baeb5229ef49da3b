// Package lorem implements a mock jobchat.Generator that produces lorem
// ipsum text. Used for testing and development without requiring real
// API keys.
package lorem

import (
	"context"
	"log"
	"strings"
	"time"

	loremgen "github.com/bozaro/golorem"

	chatcore "github.com/haowjy/meridian-chat-go"
	"github.com/haowjy/meridian-chat-go/jobchat"
)

// Generator is a mock text generator backed by golorem.
type Generator struct {
	lorem *loremgen.Lorem
}

// NewGenerator creates a new lorem ipsum generator.
func NewGenerator() *Generator {
	return &Generator{
		lorem: loremgen.New(),
	}
}

// Name returns the generator identifier.
func (g *Generator) Name() jobchat.GeneratorID {
	return jobchat.GeneratorLorem
}

// SupportsModel returns true if the model name starts with "lorem-".
// Example models: "lorem-fast", "lorem-slow", "lorem-test"
func (g *Generator) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "lorem-")
}

// getStreamDelay returns the delay between words based on the model name.
// - lorem-slow: 2 words/second
// - lorem-fast: 30 words/second
// - lorem-test: no delay, for unit tests
// - default: 10 words/second
func getStreamDelay(model string) time.Duration {
	if strings.Contains(model, "slow") {
		return 500 * time.Millisecond
	}
	if strings.Contains(model, "fast") {
		return 33 * time.Millisecond
	}
	if strings.Contains(model, "test") {
		return 0
	}
	return 100 * time.Millisecond
}

// Generate produces a complete lorem ipsum response.
func (g *Generator) Generate(ctx context.Context, req *jobchat.Request) (*jobchat.Response, error) {
	if !g.SupportsModel(req.Model) {
		return nil, &chatcore.ModelError{
			Model:     req.Model,
			Generator: g.Name().String(),
			Reason:    "model not supported by Lorem generator (must start with 'lorem-')",
			Err:       chatcore.ErrInvalidModel,
		}
	}

	text := g.lorem.Paragraph(2, 4)

	return &jobchat.Response{
		Text:         text,
		Model:        req.Model,
		InputTokens:  jobchat.EstimateTokens(req.System) + len(req.Turns),
		OutputTokens: len(strings.Fields(text)),
		StopReason:   chatcore.StopReasonEndTurn,
	}, nil
}

// Stream produces a streaming lorem ipsum response: one thinking chunk,
// then word-by-word text, then the final result. Speed varies by model
// name (lorem-slow, lorem-fast, lorem-test).
func (g *Generator) Stream(ctx context.Context, req *jobchat.Request) (<-chan jobchat.StreamChunk, error) {
	if !g.SupportsModel(req.Model) {
		return nil, &chatcore.ModelError{
			Model:     req.Model,
			Generator: g.Name().String(),
			Reason:    "model not supported by Lorem generator (must start with 'lorem-')",
			Err:       chatcore.ErrInvalidModel,
		}
	}

	delay := getStreamDelay(req.Model)
	chunkChan := make(chan jobchat.StreamChunk, 10)

	go func() {
		defer close(chunkChan)

		log.Printf("[LOREM] Stream started: model=%s, thinking=%v, turns=%d",
			req.Model, req.Thinking, len(req.Turns))

		send := func(chunk jobchat.StreamChunk) bool {
			select {
			case <-ctx.Done():
				chunkChan <- jobchat.StreamChunk{Err: ctx.Err()}
				return false
			case chunkChan <- chunk:
				return true
			}
		}

		if req.Thinking {
			narration := g.lorem.Sentence(5, 10)
			if !send(jobchat.StreamChunk{Thinking: &narration}) {
				return
			}
		}

		text := g.lorem.Paragraph(1, 3)
		words := strings.Fields(text)
		for i, word := range words {
			if delay > 0 {
				select {
				case <-ctx.Done():
					chunkChan <- jobchat.StreamChunk{Err: ctx.Err()}
					return
				case <-time.After(delay):
				}
			}
			fragment := word
			if i < len(words)-1 {
				fragment += " "
			}
			if !send(jobchat.StreamChunk{Text: &fragment}) {
				return
			}
		}

		send(jobchat.StreamChunk{Result: &jobchat.Response{
			Text:         text,
			Model:        req.Model,
			OutputTokens: len(words),
			StopReason:   chatcore.StopReasonEndTurn,
		}})
	}()

	return chunkChan, nil
}
