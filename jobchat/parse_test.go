package jobchat

import (
	"testing"

	chatcore "github.com/haowjy/meridian-chat-go"
)

func TestParseModelOutput(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantResponse string
		wantEdits    int
	}{
		{
			name:         "strict JSON",
			raw:          `{"response": "Add a log call.", "edits": [{"action": "replace", "old_code": "get('/x');", "new_code": "get('/x'); log();"}]}`,
			wantResponse: "Add a log call.",
			wantEdits:    1,
		},
		{
			name:         "strict JSON no edits",
			raw:          `{"response": "Looks fine as is."}`,
			wantResponse: "Looks fine as is.",
			wantEdits:    0,
		},
		{
			name: "fenced json block",
			raw: "Here's my suggestion:\n```json\n" +
				`{"response": "Use each().", "edits": [{"action": "rewrite", "new_code": "each('$.items[*]', post('/x', dataValue('')));"}]}` +
				"\n```\nLet me know if that helps.",
			wantResponse: "Use each().",
			wantEdits:    1,
		},
		{
			name: "fenced plain block with JSON",
			raw: "```\n" +
				`{"response": "ok", "edits": []}` +
				"\n```",
			wantResponse: "ok",
			wantEdits:    0,
		},
		{
			name:         "plain prose fallback",
			raw:          "You should use the each() operation to iterate items.",
			wantResponse: "You should use the each() operation to iterate items.",
			wantEdits:    0,
		},
		{
			name:         "malformed JSON falls back to prose",
			raw:          `{"response": "truncated`,
			wantResponse: `{"response": "truncated`,
			wantEdits:    0,
		},
		{
			name:         "whitespace trimmed",
			raw:          "  \n answer text \n ",
			wantResponse: "answer text",
			wantEdits:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ParseModelOutput(tt.raw)
			if out.Response != tt.wantResponse {
				t.Errorf("Response = %q, want %q", out.Response, tt.wantResponse)
			}
			if len(out.Edits) != tt.wantEdits {
				t.Errorf("Edits = %d, want %d", len(out.Edits), tt.wantEdits)
			}
		})
	}
}

func TestParseModelOutput_EditFields(t *testing.T) {
	raw := `{"response": "r", "edits": [{"action": "replace", "old_code": "a", "new_code": "b", "explanation": "swap"}]}`
	out := ParseModelOutput(raw)

	if len(out.Edits) != 1 {
		t.Fatalf("Edits = %d, want 1", len(out.Edits))
	}
	edit := out.Edits[0]
	if edit.Action != chatcore.EditActionReplace || edit.OldCode != "a" || edit.NewCode != "b" || edit.Explanation != "swap" {
		t.Errorf("edit = %+v", edit)
	}
}
