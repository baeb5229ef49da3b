package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	chatcore "github.com/haowjy/meridian-chat-go"
	"github.com/haowjy/meridian-chat-go/jobchat"
)

// noCorrection returns a nil CorrectionFunc, spelled out so the wiring
// in newServer reads clearly.
func noCorrection() chatcore.CorrectionFunc {
	return nil
}

// PatchTool handles the apply_patch MCP tool.
type PatchTool struct {
	engine *chatcore.PatchEngine
}

// newPatchTool creates a PatchTool with the given correction callback
// (nil disables the correction pathway).
func newPatchTool(correct chatcore.CorrectionFunc) *PatchTool {
	return &PatchTool{engine: chatcore.NewPatchEngine(correct)}
}

// Definition returns the MCP tool definition for registration.
func (t *PatchTool) Definition() mcp.Tool {
	return mcp.NewTool("apply_patch",
		mcp.WithDescription(
			"Apply a list of edit instructions to a code buffer. "+
				"Each edit either replaces an exact substring (which must occur "+
				"exactly once) or rewrites the whole buffer. Returns the patched "+
				"code, the number of edits applied, and any warnings.",
		),
		mcp.WithString("code",
			mcp.Required(),
			mcp.Description("The code buffer to patch"),
		),
		mcp.WithString("edits",
			mcp.Required(),
			mcp.Description(`JSON array of edits: [{"action": "replace"|"rewrite", "old_code": "...", "new_code": "...", "explanation": "..."}]`),
		),
	)
}

// Handle processes the apply_patch tool call.
func (t *PatchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code := req.GetString("code", "")
	editsJSON := req.GetString("edits", "")
	if editsJSON == "" {
		return mcp.NewToolResultError("'edits' is required"), nil
	}

	var edits []chatcore.EditInstruction
	if err := json.Unmarshal([]byte(editsJSON), &edits); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("'edits' is not a valid JSON array: %v", err)), nil
	}

	result := t.engine.Apply(ctx, code, edits)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling patch result: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

// ChatTool handles the job_chat MCP tool.
type ChatTool struct {
	svc *jobchat.Service
}

// newChatTool creates a ChatTool over the given chat service.
func newChatTool(svc *jobchat.Service) *ChatTool {
	return &ChatTool{svc: svc}
}

// Definition returns the MCP tool definition for registration.
func (t *ChatTool) Definition() mcp.Tool {
	return mcp.NewTool("job_chat",
		mcp.WithDescription(
			"Answer a question about writing an OpenFn job. Optionally pass "+
				"the current job code and ask for code suggestions, which are "+
				"returned as patched code.",
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The user's question"),
		),
		mcp.WithString("expression",
			mcp.Description("The current job code"),
		),
		mcp.WithString("adaptor",
			mcp.Description("The adaptor the job runs against, e.g. '@openfn/language-http'"),
		),
		mcp.WithString("input",
			mcp.Description("The job's input data"),
		),
		mcp.WithString("log",
			mcp.Description("The job's last log output"),
		),
		mcp.WithBoolean("suggest_code",
			mcp.Description("Ask for structured code edits applied to 'expression'. Defaults to false."),
		),
		mcp.WithString("chat_id",
			mcp.Description("Conversation id for multi-turn chats; history is stored server-side"),
		),
	)
}

// Handle processes the job_chat tool call.
func (t *ChatTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := req.GetString("content", "")
	if content == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}

	result, err := t.svc.Chat(ctx, &jobchat.ChatRequest{
		Content: content,
		Context: jobchat.JobContext{
			Expression: req.GetString("expression", ""),
			Adaptor:    req.GetString("adaptor", ""),
			Input:      req.GetString("input", ""),
			Log:        req.GetString("log", ""),
		},
		SuggestCode: req.GetBool("suggest_code", false),
		ChatID:      req.GetString("chat_id", ""),
	})
	if err != nil {
		if chatcore.IsAuthError(err) {
			return mcp.NewToolResultError("authentication failed: check ANTHROPIC_API_KEY"), nil
		}
		return nil, fmt.Errorf("chat failed: %w", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling chat result: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}
