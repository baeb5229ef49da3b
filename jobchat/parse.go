package jobchat

import (
	"encoding/json"
	"strings"

	chatcore "github.com/haowjy/meridian-chat-go"
)

// ModelOutput is the structured answer extracted from raw model text.
type ModelOutput struct {
	// Response is the prose answer for the user.
	Response string `json:"response"`

	// Edits are the proposed code changes, possibly empty.
	Edits []chatcore.EditInstruction `json:"edits,omitempty"`
}

// ParseModelOutput extracts a ModelOutput from raw model text. Models
// do not reliably honor output contracts, so extraction is tolerant:
//
//  1. the whole text parses as the expected JSON object, or
//  2. the text contains a fenced ```json block that parses, or
//  3. neither, in which case the raw text becomes the prose response
//     with no edits.
//
// It never fails: a model that ignored the contract still produced an
// answer worth showing.
func ParseModelOutput(raw string) *ModelOutput {
	trimmed := strings.TrimSpace(raw)

	if out, ok := tryParse(trimmed); ok {
		return out
	}
	if block, ok := extractFencedJSON(trimmed); ok {
		if out, ok := tryParse(block); ok {
			return out
		}
	}
	return &ModelOutput{Response: trimmed}
}

// tryParse attempts a strict decode. A bare JSON value that is not an
// object with a response field (e.g. a quoted string) is rejected so
// prose that happens to be valid JSON falls through to the raw path.
func tryParse(s string) (*ModelOutput, bool) {
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}
	var out ModelOutput
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, false
	}
	if out.Response == "" && len(out.Edits) == 0 {
		return nil, false
	}
	return &out, true
}

// extractFencedJSON returns the contents of the first ```json fenced
// block, or the first plain ``` block that starts with '{'.
func extractFencedJSON(s string) (string, bool) {
	for _, marker := range []string{"```json", "```"} {
		start := strings.Index(s, marker)
		if start < 0 {
			continue
		}
		body := s[start+len(marker):]
		end := strings.Index(body, "```")
		if end < 0 {
			continue
		}
		candidate := strings.TrimSpace(body[:end])
		if strings.HasPrefix(candidate, "{") {
			return candidate, true
		}
	}
	return "", false
}
