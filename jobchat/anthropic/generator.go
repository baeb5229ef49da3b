// Package anthropic implements jobchat.Generator over the Anthropic
// (Claude) API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	chatcore "github.com/haowjy/meridian-chat-go"
	"github.com/haowjy/meridian-chat-go/jobchat"
)

// Generator implements the jobchat.Generator interface for Anthropic
// (Claude) models.
type Generator struct {
	client *anthropic.Client
}

// NewGenerator creates a new Anthropic generator with the given API key.
func NewGenerator(apiKey string) (*Generator, error) {
	if apiKey == "" {
		return nil, chatcore.ErrInvalidAPIKey
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &Generator{
		client: &client,
	}, nil
}

// Name returns the generator identifier.
func (g *Generator) Name() jobchat.GeneratorID {
	return jobchat.GeneratorAnthropic
}

// SupportsModel returns true if this generator supports the given model.
// Anthropic models start with "claude-"
func (g *Generator) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "claude-")
}

// Generate produces a complete response from Claude.
func (g *Generator) Generate(ctx context.Context, req *jobchat.Request) (*jobchat.Response, error) {
	if !g.SupportsModel(req.Model) {
		return nil, &chatcore.ModelError{
			Model:     req.Model,
			Generator: g.Name().String(),
			Reason:    "model not supported by Anthropic (must start with 'claude-')",
			Err:       chatcore.ErrInvalidModel,
		}
	}

	params := buildMessageParams(req, false)

	message, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic API call failed: %w", err)
	}

	return convertMessage(message), nil
}

// buildMessageParams constructs Anthropic API parameters from a Request.
// Shared between Generate and Stream to avoid duplication.
func buildMessageParams(req *jobchat.Request, streaming bool) anthropic.MessageNewParams {
	messages := make([]anthropic.MessageParam, 0, len(req.Turns))
	for _, turn := range req.Turns {
		block := anthropic.NewTextBlock(turn.Content)
		if turn.Role == jobchat.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 1024
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  messages,
		MaxTokens: maxTokens,
	}

	if req.System != "" {
		params.System = []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: req.System,
			},
		}
	}

	// Extended thinking needs headroom below max_tokens; the API
	// rejects budgets that equal or exceed it.
	if streaming && req.Thinking {
		budget := int64(1024)
		if maxTokens > budget {
			params.Thinking = anthropic.ThinkingConfigParamOfEnabled(budget)
		}
	}

	return params
}

// convertMessage flattens a Claude message into a jobchat.Response,
// joining text blocks in order.
func convertMessage(message *anthropic.Message) *jobchat.Response {
	var parts []string
	for _, block := range message.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}

	return &jobchat.Response{
		Text:         strings.Join(parts, "\n\n"),
		Model:        string(message.Model),
		InputTokens:  int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
		StopReason:   string(message.StopReason),
	}
}
