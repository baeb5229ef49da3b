package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	chatcore "github.com/haowjy/meridian-chat-go"
	"github.com/haowjy/meridian-chat-go/jobchat"
)

const correctionSystem = `You fix code edit instructions that failed to apply.
You will be given a code buffer, a proposed edit whose old_code did not match
the buffer exactly once, and the reason it failed. Find the text in the buffer
the edit was meant to target and return a corrected edit.

Respond with a single JSON object and nothing else:

{"action": "replace", "old_code": "<exact substring of the buffer>", "new_code": "<replacement>"}

old_code must be copied byte-for-byte from the buffer, including whitespace,
and should be long enough to occur exactly once.`

// NewCorrectionFunc returns a correction callback that asks the given
// generator to re-anchor a failed edit against the real buffer. The
// generator can be a cheaper model than the main chat call; the task is
// narrow.
func NewCorrectionFunc(gen jobchat.Generator, cfg jobchat.CorrectionConfig) chatcore.CorrectionFunc {
	return func(ctx context.Context, req *chatcore.CorrectionRequest) (*chatcore.EditInstruction, error) {
		prompt := buildCorrectionPrompt(req)

		maxTokens := cfg.MaxTokens
		if maxTokens == 0 {
			maxTokens = 512
		}

		resp, err := gen.Generate(ctx, &jobchat.Request{
			Model:     cfg.Model,
			System:    correctionSystem,
			Turns:     []jobchat.Turn{{Role: jobchat.RoleUser, Content: prompt}},
			MaxTokens: maxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("correction call: %w", err)
		}

		edit, err := parseCorrectionResponse(resp.Text)
		if err != nil {
			return nil, err
		}
		return edit, nil
	}
}

func buildCorrectionPrompt(req *chatcore.CorrectionRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "The code buffer:\n```\n%s\n```\n\n", req.Code)
	fmt.Fprintf(&sb, "The failing edit:\nold_code:\n```\n%s\n```\nnew_code:\n```\n%s\n```\n\n", req.OldCode, req.NewCode)
	if req.Explanation != "" {
		fmt.Fprintf(&sb, "The edit's intent: %s\n\n", req.Explanation)
	}
	fmt.Fprintf(&sb, "Why it failed: %s\n\nReturn the corrected edit.", req.FailureReason)
	return sb.String()
}

// parseCorrectionResponse decodes the corrected edit from raw model
// text, accepting either bare JSON or a fenced block.
func parseCorrectionResponse(raw string) (*chatcore.EditInstruction, error) {
	text := strings.TrimSpace(raw)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("correction response contained no JSON object")
	}

	var edit chatcore.EditInstruction
	if err := json.Unmarshal([]byte(text[start:end+1]), &edit); err != nil {
		return nil, fmt.Errorf("correction response was not a valid edit: %w", err)
	}
	if edit.OldCode == "" {
		return nil, fmt.Errorf("correction response had no old_code")
	}
	if edit.Action == "" {
		edit.Action = chatcore.EditActionReplace
	}
	return &edit, nil
}
