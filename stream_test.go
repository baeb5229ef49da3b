package chatcore

import (
	"errors"
	"strings"
	"testing"
)

// recordingSink collects events in memory for assertions.
type recordingSink struct {
	events []Event
	failOn string // event type to fail on, "" for never
}

func (s *recordingSink) Emit(event Event) error {
	if s.failOn != "" && event.Type == s.failOn {
		return errors.New("sink closed")
	}
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) types() []string {
	out := make([]string, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Type
	}
	return out
}

func eventTypesEqual(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestStreamManager_FullSession(t *testing.T) {
	sink := &recordingSink{}
	mgr := NewStreamManager("", sink)

	if err := mgr.SendThinking("Analyzing the expression...", ""); err != nil {
		t.Fatalf("SendThinking() error = %v", err)
	}
	if err := mgr.SendText("Here's what I found"); err != nil {
		t.Fatalf("SendText() error = %v", err)
	}
	if err := mgr.SendText(" so far."); err != nil {
		t.Fatalf("SendText() error = %v", err)
	}
	if err := mgr.EndStream(""); err != nil {
		t.Fatalf("EndStream() error = %v", err)
	}

	want := []string{
		EventMessageStart,
		EventBlockStart, // thinking
		EventBlockDelta, // thinking_delta
		EventBlockDelta, // signature_delta
		EventBlockStop,
		EventBlockStart, // text
		EventBlockDelta, // "Here's what I found"
		EventBlockDelta, // " so far."
		EventBlockStop,
		EventMessageDelta,
		EventMessageStop,
	}
	if got := sink.types(); !eventTypesEqual(got, want) {
		t.Errorf("event sequence = %v, want %v", got, want)
	}
}

func TestStreamManager_AutoStart(t *testing.T) {
	tests := []struct {
		name string
		send func(m *StreamManager) error
	}{
		{
			name: "text auto-starts",
			send: func(m *StreamManager) error { return m.SendText("hi") },
		},
		{
			name: "thinking auto-starts",
			send: func(m *StreamManager) error { return m.SendThinking("hmm", "") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			mgr := NewStreamManager("", sink)

			if err := tt.send(mgr); err != nil {
				t.Fatalf("send error = %v", err)
			}
			if !mgr.Started() {
				t.Error("Started() = false, want true")
			}
			if len(sink.events) == 0 || sink.events[0].Type != EventMessageStart {
				t.Errorf("first event = %v, want %s", sink.types(), EventMessageStart)
			}
		})
	}
}

func TestStreamManager_StartTwice(t *testing.T) {
	mgr := NewStreamManager("", &recordingSink{})

	if err := mgr.StartStream(); err != nil {
		t.Fatalf("first StartStream() error = %v", err)
	}
	err := mgr.StartStream()
	if !errors.Is(err, ErrStreamStarted) {
		t.Errorf("second StartStream() error = %v, want ErrStreamStarted", err)
	}
	if !IsContractError(err) {
		t.Error("IsContractError() = false, want true")
	}
}

func TestStreamManager_SendAfterEnd(t *testing.T) {
	mgr := NewStreamManager("", &recordingSink{})
	if err := mgr.SendText("hello"); err != nil {
		t.Fatalf("SendText() error = %v", err)
	}
	if err := mgr.EndStream(""); err != nil {
		t.Fatalf("EndStream() error = %v", err)
	}

	if err := mgr.SendText("late"); !errors.Is(err, ErrStreamEnded) {
		t.Errorf("SendText() after end error = %v, want ErrStreamEnded", err)
	}
	if err := mgr.SendThinking("late", ""); !errors.Is(err, ErrStreamEnded) {
		t.Errorf("SendThinking() after end error = %v, want ErrStreamEnded", err)
	}
}

func TestStreamManager_EndStreamIdempotent(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *StreamManager)
	}{
		{
			name:  "never started",
			setup: func(m *StreamManager) {},
		},
		{
			name: "already ended",
			setup: func(m *StreamManager) {
				m.SendText("hi")
				m.EndStream("")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			mgr := NewStreamManager("", sink)
			tt.setup(mgr)
			before := len(sink.events)

			if err := mgr.EndStream(""); err != nil {
				t.Errorf("EndStream() error = %v, want nil", err)
			}
			if len(sink.events) != before {
				t.Errorf("EndStream() emitted %d extra events, want 0", len(sink.events)-before)
			}
		})
	}
}

func TestStreamManager_TextCoalescing(t *testing.T) {
	sink := &recordingSink{}
	mgr := NewStreamManager("", sink)

	mgr.SendText("a")
	mgr.SendText("b")
	mgr.SendText("c")
	mgr.EndStream("")

	blocks := mgr.Blocks()
	if len(blocks) != 1 {
		t.Fatalf("Blocks() returned %d blocks, want 1", len(blocks))
	}
	if blocks[0].BlockType != BlockTypeText {
		t.Errorf("block type = %q, want %q", blocks[0].BlockType, BlockTypeText)
	}

	var text strings.Builder
	for _, ev := range sink.events {
		if ev.Type == EventBlockDelta && ev.BlockDelta.IsTextDelta() {
			text.WriteString(*ev.BlockDelta.Delta.Text)
		}
	}
	if text.String() != "abc" {
		t.Errorf("reassembled text = %q, want %q", text.String(), "abc")
	}
}

func TestStreamManager_ThinkingSplitsText(t *testing.T) {
	sink := &recordingSink{}
	mgr := NewStreamManager("", sink)

	mgr.SendText("first")
	mgr.SendThinking("checking docs", "")
	mgr.SendText("second")
	mgr.EndStream("")

	blocks := mgr.Blocks()
	if len(blocks) != 3 {
		t.Fatalf("Blocks() returned %d blocks, want 3", len(blocks))
	}
	wantTypes := []string{BlockTypeText, BlockTypeThinking, BlockTypeText}
	for i, b := range blocks {
		if b.BlockType != wantTypes[i] {
			t.Errorf("block %d type = %q, want %q", i, b.BlockType, wantTypes[i])
		}
		if b.Index != i {
			t.Errorf("block %d index = %d, want %d", i, b.Index, i)
		}
		if b.IsOpen {
			t.Errorf("block %d still open after EndStream", i)
		}
	}
}

func TestStreamManager_ThinkingBlockShape(t *testing.T) {
	sink := &recordingSink{}
	mgr := NewStreamManager("", sink)

	if err := mgr.SendThinking("weighing options", "sig-abc"); err != nil {
		t.Fatalf("SendThinking() error = %v", err)
	}

	// Skip message_start; the thinking block is events 1..4.
	if len(sink.events) != 5 {
		t.Fatalf("got %d events, want 5", len(sink.events))
	}

	start := sink.events[1].BlockStart
	if start == nil || start.ContentBlock.Type != BlockTypeThinking {
		t.Fatalf("event 1 = %+v, want thinking content_block_start", sink.events[1])
	}
	if start.ContentBlock.Thinking == nil || *start.ContentBlock.Thinking != "" {
		t.Error("content_block_start thinking field should be empty string")
	}

	d1 := sink.events[2].BlockDelta
	if d1 == nil || !d1.IsThinkingDelta() || *d1.Delta.Thinking != "weighing options" {
		t.Errorf("event 2 = %+v, want thinking_delta with full text", sink.events[2])
	}

	d2 := sink.events[3].BlockDelta
	if d2 == nil || !d2.IsSignatureDelta() || *d2.Delta.Signature != "sig-abc" {
		t.Errorf("event 3 = %+v, want signature_delta %q", sink.events[3], "sig-abc")
	}

	if sink.events[4].Type != EventBlockStop {
		t.Errorf("event 4 type = %q, want %s", sink.events[4].Type, EventBlockStop)
	}
}

func TestStreamManager_DefaultSignature(t *testing.T) {
	sink := &recordingSink{}
	mgr := NewStreamManager("", sink)
	mgr.SendThinking("thinking", "")

	var got string
	for _, ev := range sink.events {
		if ev.Type == EventBlockDelta && ev.BlockDelta.IsSignatureDelta() {
			got = *ev.BlockDelta.Delta.Signature
		}
	}
	if got != DefaultSignature {
		t.Errorf("signature = %q, want %q", got, DefaultSignature)
	}
}

func TestStreamManager_StopReason(t *testing.T) {
	tests := []struct {
		name       string
		stopReason string
		want       string
	}{
		{name: "explicit max_tokens", stopReason: StopReasonMaxTokens, want: StopReasonMaxTokens},
		{name: "default end_turn", stopReason: "", want: StopReasonEndTurn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			mgr := NewStreamManager("", sink)
			mgr.SendText("hi")
			mgr.EndStream(tt.stopReason)

			var got string
			for _, ev := range sink.events {
				if ev.Type == EventMessageDelta {
					got = ev.MessageDelta.Delta.StopReason
				}
			}
			if got != tt.want {
				t.Errorf("stop reason = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStreamManager_MessageStart(t *testing.T) {
	tests := []struct {
		name      string
		model     string
		wantModel string
	}{
		{name: "explicit model", model: "claude-sonnet-4-20250514", wantModel: "claude-sonnet-4-20250514"},
		{name: "default model", model: "", wantModel: DefaultModel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			mgr := NewStreamManager(tt.model, sink)
			if err := mgr.StartStream(); err != nil {
				t.Fatalf("StartStream() error = %v", err)
			}

			msg := sink.events[0].MessageStart.Message
			if msg.Model != tt.wantModel {
				t.Errorf("model = %q, want %q", msg.Model, tt.wantModel)
			}
			if msg.Role != "assistant" {
				t.Errorf("role = %q, want %q", msg.Role, "assistant")
			}
			if !strings.HasPrefix(msg.ID, "msg_") || len(msg.ID) != len("msg_")+24 {
				t.Errorf("message id = %q, want msg_ prefix and 24 hex chars", msg.ID)
			}
			if msg.ID != mgr.MessageID() {
				t.Errorf("MessageID() = %q, want %q", mgr.MessageID(), msg.ID)
			}
			if len(msg.Content) != 0 {
				t.Errorf("content = %v, want empty", msg.Content)
			}
		})
	}
}

func TestStreamManager_UniqueMessageIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		mgr := NewStreamManager("", &recordingSink{})
		mgr.StartStream()
		id := mgr.MessageID()
		if seen[id] {
			t.Fatalf("duplicate message id %q", id)
		}
		seen[id] = true
	}
}

func TestStreamManager_SinkError(t *testing.T) {
	sink := &recordingSink{failOn: EventBlockDelta}
	mgr := NewStreamManager("", sink)

	err := mgr.SendText("hello")
	if err == nil {
		t.Fatal("SendText() error = nil, want sink error")
	}
	if IsContractError(err) {
		t.Error("sink error misclassified as contract error")
	}
}

func TestStreamManager_NilSink(t *testing.T) {
	mgr := NewStreamManager("", nil)
	if err := mgr.SendThinking("quiet", ""); err != nil {
		t.Errorf("SendThinking() with nil sink error = %v", err)
	}
	if err := mgr.SendText("quiet"); err != nil {
		t.Errorf("SendText() with nil sink error = %v", err)
	}
	if err := mgr.EndStream(""); err != nil {
		t.Errorf("EndStream() with nil sink error = %v", err)
	}
}

func TestStreamManager_IndexMonotonicity(t *testing.T) {
	sink := &recordingSink{}
	mgr := NewStreamManager("", sink)

	mgr.SendThinking("a", "")
	mgr.SendText("b")
	mgr.SendThinking("c", "")
	mgr.SendText("d")
	mgr.EndStream("")

	lastStart := -1
	open := make(map[int]bool)
	for _, ev := range sink.events {
		switch ev.Type {
		case EventBlockStart:
			if ev.BlockStart.Index != lastStart+1 {
				t.Errorf("block index %d follows %d, want contiguous", ev.BlockStart.Index, lastStart)
			}
			lastStart = ev.BlockStart.Index
			open[ev.BlockStart.Index] = true
		case EventBlockDelta:
			if !open[ev.BlockDelta.Index] {
				t.Errorf("delta for block %d outside its start/stop window", ev.BlockDelta.Index)
			}
		case EventBlockStop:
			if !open[ev.BlockStop.Index] {
				t.Errorf("stop for block %d which is not open", ev.BlockStop.Index)
			}
			open[ev.BlockStop.Index] = false
		}
	}
	for idx, isOpen := range open {
		if isOpen {
			t.Errorf("block %d never closed", idx)
		}
	}
}
