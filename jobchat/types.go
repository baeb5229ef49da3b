// Package jobchat implements the coding-assistant chat workflow: it
// builds prompts from a user question plus job context, calls a text
// Generator, streams progress through a chatcore.StreamManager, and
// applies any code edits the model proposes with a chatcore.PatchEngine.
package jobchat

import (
	chatcore "github.com/haowjy/meridian-chat-go"
)

// Turn roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one entry in a chat history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// JobContext carries the state of the job the user is editing. All
// fields are optional; empty fields are omitted from the prompt.
type JobContext struct {
	// Expression is the user's current job code.
	Expression string `json:"expression,omitempty"`

	// Adaptor is the adaptor the job runs against (e.g. "@openfn/language-http").
	Adaptor string `json:"adaptor,omitempty"`

	// Input is the job's input data, usually JSON.
	Input string `json:"input,omitempty"`

	// Output is the job's last output data.
	Output string `json:"output,omitempty"`

	// Log is the job's last log output.
	Log string `json:"log,omitempty"`
}

// ChatRequest is one user message plus everything needed to answer it.
type ChatRequest struct {
	// Content is the user's question.
	Content string `json:"content"`

	// History is the prior conversation, oldest first.
	History []Turn `json:"history,omitempty"`

	// Context is the state of the job being edited.
	Context JobContext `json:"context"`

	// SuggestCode asks the model for structured edit instructions
	// against Context.Expression, which are then applied by the patch
	// engine. Without it the model answers in plain prose.
	SuggestCode bool `json:"suggest_code,omitempty"`

	// ChatID keys the conversation in the history store, when one is
	// configured. Empty means stateless.
	ChatID string `json:"chat_id,omitempty"`

	// Model overrides the service's configured model.
	Model string `json:"model,omitempty"`
}

// ChatUsage reports token counts for one chat call. When the generator
// does not report usage, counts are estimated (see tokens.go).
type ChatUsage struct {
	InputTokens  int  `json:"input_tokens"`
	OutputTokens int  `json:"output_tokens"`
	Estimated    bool `json:"estimated,omitempty"`
}

// ChatResult is the outcome of one chat call.
type ChatResult struct {
	// Response is the assistant's prose answer.
	Response string `json:"response"`

	// SuggestedCode is the patched job code, present only when at least
	// one edit applied. Nil means the original expression is unchanged.
	SuggestedCode *string `json:"suggested_code,omitempty"`

	// PatchesApplied counts edits that changed the code.
	PatchesApplied int `json:"patches_applied"`

	// Warnings carries patch diagnostics, in edit order.
	Warnings []string `json:"warnings,omitempty"`

	// History is the conversation including this exchange.
	History []Turn `json:"history"`

	// Usage reports token counts for this call.
	Usage ChatUsage `json:"usage"`
}

// resultFromPatch copies a patch run's outcome into the chat result.
func resultFromPatch(res *ChatResult, patch *chatcore.PatchResult) {
	if patch == nil {
		return
	}
	res.SuggestedCode = patch.FinalCode
	res.PatchesApplied = patch.PatchesApplied
	res.Warnings = patch.Warnings
}
