package chatcore

import (
	"context"
	"fmt"
	"strings"
)

// Edit action constants
const (
	// EditActionReplace replaces one exact occurrence of OldCode with NewCode.
	EditActionReplace = "replace"

	// EditActionRewrite replaces the entire buffer with NewCode. Used when
	// the model judges a full regeneration safer than a localized edit.
	EditActionRewrite = "rewrite"
)

// EditInstruction is a single declarative edit proposed by the model.
type EditInstruction struct {
	// Action is EditActionReplace or EditActionRewrite.
	Action string `json:"action"`

	// OldCode is the exact substring to replace. Required for "replace",
	// ignored for "rewrite". Matching is byte-for-byte, whitespace included.
	OldCode string `json:"old_code,omitempty"`

	// NewCode is the replacement text (or the full new buffer for "rewrite").
	NewCode string `json:"new_code"`

	// Explanation is the natural-language rationale the model gave
	// alongside the edit. Passed through to the correction callback to
	// give it context; never interpreted by the engine.
	Explanation string `json:"explanation,omitempty"`
}

// EditOutcome records what happened to one EditInstruction.
type EditOutcome struct {
	// Applied is true if the instruction changed the buffer, including
	// applications that only succeeded after correction.
	Applied bool `json:"applied"`

	// Warning is a human-readable reason when the instruction was not
	// cleanly applied, or was applied only after correction. Empty on a
	// clean application.
	Warning string `json:"warning,omitempty"`
}

// PatchResult aggregates the outcomes of one Apply call.
// It is constructed fresh per call and immutable once returned.
type PatchResult struct {
	// FinalCode is the patched buffer, present only if at least one
	// instruction applied. When nil the caller must treat the buffer as
	// unchanged rather than presenting a no-op "patched" result.
	FinalCode *string `json:"final_code,omitempty"`

	// PatchesApplied counts instructions that changed the buffer.
	PatchesApplied int `json:"patches_applied"`

	// Warnings collects every non-empty warning, in instruction order.
	Warnings []string `json:"warnings,omitempty"`

	// Outcomes has one entry per instruction attempted, in order.
	Outcomes []EditOutcome `json:"outcomes"`
}

// CorrectionRequest carries the full context of a failed replace so the
// correction callback can re-derive a better-anchored edit.
type CorrectionRequest struct {
	// OldCode and NewCode are the failing instruction's fields.
	OldCode string
	NewCode string

	// Code is the entire current buffer the edit failed against.
	Code string

	// Explanation is the model's rationale for the edit, if any.
	Explanation string

	// FailureReason says why the original match failed ("not found" vs
	// ambiguous).
	FailureReason string
}

// CorrectionFunc re-derives a failed edit instruction, typically by asking
// a secondary generation call to look at the real buffer and propose a
// better-anchored match. Returning (nil, nil) means the edit cannot be
// corrected. The engine calls it at most once per instruction and folds
// any error into the instruction's warning; it never escapes Apply.
type CorrectionFunc func(ctx context.Context, req *CorrectionRequest) (*EditInstruction, error)

// PatchEngine applies edit instructions to an immutable original buffer,
// in order, without ever silently corrupting the buffer on ambiguous
// input. Each Apply call is independent; the engine holds no per-call
// state and may be shared across goroutines.
type PatchEngine struct {
	correct CorrectionFunc
}

// NewPatchEngine creates a patch engine with the given correction
// callback. A nil callback disables the correction pathway: failed
// replaces are reported as warnings directly.
func NewPatchEngine(correct CorrectionFunc) *PatchEngine {
	return &PatchEngine{correct: correct}
}

// Apply runs every instruction against the buffer sequentially: each
// instruction sees the result of the ones before it. Content problems
// (unknown action, no match, failed correction) become warnings on that
// one instruction while its siblings still get a chance to apply; Apply
// itself never returns an error for them.
func (e *PatchEngine) Apply(ctx context.Context, code string, edits []EditInstruction) *PatchResult {
	result := &PatchResult{
		Outcomes: make([]EditOutcome, 0, len(edits)),
	}

	current := code
	for i, edit := range edits {
		outcome := e.applyOne(ctx, &current, i, edit)
		result.Outcomes = append(result.Outcomes, outcome)
		if outcome.Applied {
			result.PatchesApplied++
		}
		if outcome.Warning != "" {
			result.Warnings = append(result.Warnings, outcome.Warning)
		}
	}

	if result.PatchesApplied > 0 {
		result.FinalCode = &current
	}
	return result
}

// applyOne processes a single instruction against *current, mutating it
// on success.
func (e *PatchEngine) applyOne(ctx context.Context, current *string, i int, edit EditInstruction) EditOutcome {
	switch edit.Action {
	case EditActionRewrite:
		// Unconditional-success path.
		*current = edit.NewCode
		return EditOutcome{Applied: true}

	case EditActionReplace:
		if edit.OldCode == "" {
			return EditOutcome{Warning: fmt.Sprintf("edit %d: replace requires old_code", i+1)}
		}

	default:
		return EditOutcome{Warning: fmt.Sprintf("edit %d: unknown action %q", i+1, edit.Action)}
	}

	reason, ok := replaceExact(current, edit.OldCode, edit.NewCode)
	if ok {
		return EditOutcome{Applied: true}
	}

	return e.applyCorrected(ctx, current, i, edit, reason)
}

// applyCorrected is the single-shot correction pathway: one callback
// invocation, one re-run of the exact search, no retry loop. Every
// corrected application leaves a warning.
func (e *PatchEngine) applyCorrected(ctx context.Context, current *string, i int, edit EditInstruction, reason string) EditOutcome {
	initial := fmt.Sprintf("edit %d: %s", i+1, reason)

	if e.correct == nil {
		return EditOutcome{Warning: initial + "; no correction configured"}
	}

	revised, err := e.correct(ctx, &CorrectionRequest{
		OldCode:       edit.OldCode,
		NewCode:       edit.NewCode,
		Code:          *current,
		Explanation:   edit.Explanation,
		FailureReason: reason,
	})
	if err != nil {
		return EditOutcome{Warning: fmt.Sprintf("%s; correction failed: %v", initial, err)}
	}
	if revised == nil || revised.OldCode == "" {
		return EditOutcome{Warning: initial + "; correction returned no edit"}
	}

	switch n := strings.Count(*current, revised.OldCode); {
	case n == 1:
		*current = strings.Replace(*current, revised.OldCode, revised.NewCode, 1)
		return EditOutcome{
			Applied: true,
			Warning: fmt.Sprintf("initial error: %s; corrected edit applied", initial),
		}
	case n > 1:
		// Fail-open after correction: patch the first occurrence only.
		*current = strings.Replace(*current, revised.OldCode, revised.NewCode, 1)
		return EditOutcome{
			Applied: true,
			Warning: fmt.Sprintf("initial error: %s; corrected old code matched %d locations, patched the first occurrence only", initial, n),
		}
	default:
		return EditOutcome{Warning: initial + "; corrected old code still not found"}
	}
}

// replaceExact replaces oldCode with newCode in *current when oldCode
// occurs exactly once. Returns ("", true) on success, or a failure reason
// and false when the match is absent or ambiguous.
func replaceExact(current *string, oldCode, newCode string) (string, bool) {
	switch n := strings.Count(*current, oldCode); {
	case n == 0:
		return "old code not found", false
	case n > 1:
		return fmt.Sprintf("old code matches %d locations", n), false
	default:
		*current = strings.Replace(*current, oldCode, newCode, 1)
		return "", true
	}
}
