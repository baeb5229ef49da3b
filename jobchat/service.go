package jobchat

import (
	"context"
	"fmt"
	"strings"

	chatcore "github.com/haowjy/meridian-chat-go"
)

// HistoryStore persists conversations across calls. See the history
// package for the SQLite implementation.
type HistoryStore interface {
	// Load returns the stored turns for a chat, oldest first. An
	// unknown chat id returns an empty slice, not an error.
	Load(ctx context.Context, chatID string) ([]Turn, error)

	// Save replaces the stored turns for a chat.
	Save(ctx context.Context, chatID string, turns []Turn) error
}

// Service composes a Generator, a StreamManager per call, and a
// PatchEngine into the full chat workflow. A Service is safe for
// concurrent use; per-call state lives in the request and the
// per-response stream session.
type Service struct {
	gen    Generator
	cfg    *Config
	engine *chatcore.PatchEngine
	store  HistoryStore
}

// NewService creates a chat service over the given generator. A nil
// config uses the embedded defaults. The patch engine starts without a
// correction pathway; see UseCorrection.
func NewService(gen Generator, cfg *Config) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Service{
		gen:    gen,
		cfg:    cfg,
		engine: chatcore.NewPatchEngine(nil),
	}
}

// UseCorrection installs the correction callback for failed edits,
// typically anthropic.NewCorrectionFunc.
func (s *Service) UseCorrection(correct chatcore.CorrectionFunc) {
	s.engine = chatcore.NewPatchEngine(correct)
}

// UseHistory installs a history store. Requests with a ChatID then load
// their prior turns automatically and persist the new exchange.
func (s *Service) UseHistory(store HistoryStore) {
	s.store = store
}

// Chat answers a request with a single blocking generation call.
func (s *Service) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	genReq, effective, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := s.gen.Generate(ctx, genReq)
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, effective, genReq, resp)
}

// ChatStream answers a request with a streaming generation call,
// forwarding progress to sink as stream events: thinking chunks become
// atomic thinking blocks, text fragments coalesce into text blocks.
// The stream session is ended on every exit path, success or failure.
func (s *Service) ChatStream(ctx context.Context, req *ChatRequest, sink chatcore.EventSink) (*ChatResult, error) {
	genReq, effective, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	mgr := chatcore.NewStreamManager(genReq.Model, sink)
	defer mgr.EndStream("")

	chunks, err := s.gen.Stream(ctx, genReq)
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	var final *Response
	for chunk := range chunks {
		switch {
		case chunk.Err != nil:
			return nil, chunk.Err
		case chunk.Thinking != nil:
			if err := mgr.SendThinking(*chunk.Thinking, ""); err != nil {
				return nil, err
			}
		case chunk.Text != nil:
			text.WriteString(*chunk.Text)
			if err := mgr.SendText(*chunk.Text); err != nil {
				return nil, err
			}
		case chunk.Result != nil:
			final = chunk.Result
		}
	}

	if final == nil {
		final = &Response{Model: genReq.Model, StopReason: chatcore.StopReasonEndTurn}
	}
	if final.Text == "" {
		final.Text = text.String()
	}
	if err := mgr.EndStream(final.StopReason); err != nil {
		return nil, err
	}

	return s.finish(ctx, effective, genReq, final)
}

// prepare resolves the model, merges stored history, and builds the
// generation request. It returns the effective chat request alongside,
// with history filled in, so finish sees the same conversation the
// model saw.
func (s *Service) prepare(ctx context.Context, req *ChatRequest) (*Request, *ChatRequest, error) {
	model := req.Model
	if model == "" {
		model = s.cfg.Model
	}
	if !s.gen.SupportsModel(model) {
		return nil, nil, &chatcore.ModelError{
			Model:     model,
			Generator: s.gen.Name().String(),
			Reason:    "model not supported by generator",
			Err:       chatcore.ErrInvalidModel,
		}
	}

	effective := *req
	if s.store != nil && req.ChatID != "" && len(req.History) == 0 {
		stored, err := s.store.Load(ctx, req.ChatID)
		if err != nil {
			return nil, nil, fmt.Errorf("loading history for chat %q: %w", req.ChatID, err)
		}
		effective.History = stored
	}

	system, turns := BuildPrompt(&effective)
	return &Request{
		Model:     model,
		System:    system,
		Turns:     turns,
		MaxTokens: s.cfg.MaxTokens,
		Thinking:  s.cfg.Thinking,
	}, &effective, nil
}

// finish parses the model output, applies any edits, updates history,
// and fills in usage.
func (s *Service) finish(ctx context.Context, req *ChatRequest, genReq *Request, resp *Response) (*ChatResult, error) {
	out := ParseModelOutput(resp.Text)

	result := &ChatResult{Response: out.Response}
	if req.SuggestCode && len(out.Edits) > 0 {
		patch := s.engine.Apply(ctx, req.Context.Expression, out.Edits)
		resultFromPatch(result, patch)
	}

	history := make([]Turn, 0, len(req.History)+2)
	history = append(history, req.History...)
	history = append(history,
		Turn{Role: RoleUser, Content: req.Content},
		Turn{Role: RoleAssistant, Content: out.Response},
	)
	result.History = history

	result.Usage = ChatUsage{
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
	}
	if resp.InputTokens == 0 && resp.OutputTokens == 0 {
		result.Usage = ChatUsage{
			InputTokens:  estimateRequestTokens(genReq),
			OutputTokens: EstimateTokens(resp.Text),
			Estimated:    true,
		}
	}

	if s.store != nil && req.ChatID != "" {
		if err := s.store.Save(ctx, req.ChatID, history); err != nil {
			return nil, fmt.Errorf("saving history for chat %q: %w", req.ChatID, err)
		}
	}
	return result, nil
}
