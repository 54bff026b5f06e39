package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/donna-agent/donna/internal/provider"
	"github.com/donna-agent/donna/internal/safety"
	"github.com/donna-agent/donna/internal/tools"
)

// fakeProvider replays canned responses and records every request.
type fakeProvider struct {
	responses []*provider.ChatResponse
	err       error
	requests  []*provider.ChatRequest
}

func (f *fakeProvider) DefaultModel() string { return "fake-model" }

func (f *fakeProvider) Chat(ctx context.Context, req *provider.ChatRequest) (*provider.ChatResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	idx := len(f.requests) - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx], nil
}

type countingTool struct {
	name  string
	risk  tools.RiskClass
	calls atomic.Int32
}

func (c *countingTool) Name() string               { return c.name }
func (c *countingTool) Description() string        { return "counting tool" }
func (c *countingTool) Parameters() map[string]any { return map[string]any{"type": "object"} }
func (c *countingTool) Risk() tools.RiskClass      { return c.risk }
func (c *countingTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	c.calls.Add(1)
	return "done", nil
}

func toolCallResponse(name string) *provider.ChatResponse {
	return &provider.ChatResponse{
		ToolCalls: []provider.ToolCall{{ID: "call-1", Name: name, Arguments: map[string]any{}}},
	}
}

func newTestLoop(p provider.LLMProvider, reg *tools.Registry, maxCycles int) *Loop {
	gate := safety.NewInterceptor(safety.NewConfirmations(nil), nil, nil, nil, safety.Options{})
	return NewLoop(LoopOptions{
		Provider:  p,
		Registry:  reg,
		Gate:      gate,
		MaxCycles: maxCycles,
	})
}

func userMessages(text string) []provider.Message {
	return []provider.Message{
		{Role: "system", Content: "test"},
		{Role: "user", Content: text},
	}
}

func TestLoopFinalAnswer(t *testing.T) {
	p := &fakeProvider{responses: []*provider.ChatResponse{{Content: "the answer"}}}
	loop := newTestLoop(p, tools.NewRegistry(), 5)

	answer, err := loop.Run(context.Background(), &Profile{Name: "coder"}, userMessages("hi"))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if answer != "the answer" {
		t.Errorf("got %q", answer)
	}
}

func TestLoopCycleBudget(t *testing.T) {
	reg := tools.NewRegistry()
	ct := &countingTool{name: "ping", risk: tools.RiskGreen}
	reg.Register(ct)

	// The model never stops asking for the tool.
	p := &fakeProvider{responses: []*provider.ChatResponse{toolCallResponse("ping")}}
	loop := newTestLoop(p, reg, 3)

	_, err := loop.Run(context.Background(), &Profile{Name: "coder"}, userMessages("go"))
	if !errors.Is(err, ErrCycleBudgetExceeded) {
		t.Fatalf("expected ErrCycleBudgetExceeded, got %v", err)
	}
	if got := ct.calls.Load(); got != 3 {
		t.Errorf("expected exactly 3 executions, got %d", got)
	}
}

func TestLoopDeniedBecomesObservation(t *testing.T) {
	reg := tools.NewRegistry()
	red := &countingTool{name: "wipe", risk: tools.RiskRed}
	reg.Register(red)

	p := &fakeProvider{responses: []*provider.ChatResponse{
		toolCallResponse("wipe"),
		{Content: "understood, skipping it"},
	}}
	// No prompter wired: every red action is denied.
	loop := newTestLoop(p, reg, 5)

	answer, err := loop.Run(context.Background(), &Profile{Name: "coder"}, userMessages("wipe it"))
	if err != nil {
		t.Fatalf("denial must not fail the run: %v", err)
	}
	if answer != "understood, skipping it" {
		t.Errorf("got %q", answer)
	}
	if red.calls.Load() != 0 {
		t.Error("denied tool must never execute")
	}

	// The denial reached the model as a tool observation.
	second := p.requests[1]
	last := second.Messages[len(second.Messages)-1]
	if last.Role != "tool" || !strings.Contains(last.Content, "not executed") {
		t.Errorf("expected denial observation, got %+v", last)
	}
}

func TestLoopUnknownToolObservation(t *testing.T) {
	p := &fakeProvider{responses: []*provider.ChatResponse{
		toolCallResponse("ghost"),
		{Content: "ok"},
	}}
	loop := newTestLoop(p, tools.NewRegistry(), 5)

	answer, err := loop.Run(context.Background(), &Profile{Name: "coder"}, userMessages("x"))
	if err != nil {
		t.Fatalf("unknown tool must not fail the run: %v", err)
	}
	if answer != "ok" {
		t.Errorf("got %q", answer)
	}
	second := p.requests[1]
	last := second.Messages[len(second.Messages)-1]
	if !strings.Contains(last.Content, "unknown tool") {
		t.Errorf("expected unknown tool observation, got %q", last.Content)
	}
}

func TestLoopProfileToolRestriction(t *testing.T) {
	reg := tools.NewRegistry()
	ct := &countingTool{name: "ping", risk: tools.RiskGreen}
	reg.Register(ct)

	p := &fakeProvider{responses: []*provider.ChatResponse{
		toolCallResponse("ping"),
		{Content: "fine"},
	}}
	loop := newTestLoop(p, reg, 5)

	profile := &Profile{Name: "critic", AllowedTools: []string{"read_file"}}
	if _, err := loop.Run(context.Background(), profile, userMessages("x")); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if ct.calls.Load() != 0 {
		t.Error("tool outside the profile surface must not execute")
	}
}

func TestLoopModelUnavailable(t *testing.T) {
	p := &fakeProvider{err: fmt.Errorf("%w: connection refused", provider.ErrModelUnavailable)}
	loop := newTestLoop(p, tools.NewRegistry(), 5)

	_, err := loop.Run(context.Background(), &Profile{Name: "coder"}, userMessages("x"))
	if !errors.Is(err, provider.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}
