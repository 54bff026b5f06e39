// Package agent implements the core agent loop.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/donna-agent/donna/internal/provider"
	"github.com/donna-agent/donna/internal/safety"
	"github.com/donna-agent/donna/internal/tools"
)

// ErrCycleBudgetExceeded is returned when the loop burns its full cycle
// budget without producing a final answer.
var ErrCycleBudgetExceeded = errors.New("cycle budget exceeded")

// Hooks lets the caller observe loop progress for terminal display.
// All fields are optional.
type Hooks struct {
	OnThought    func(content string)
	OnToolCall   func(name string, args map[string]any)
	OnToolResult func(name, result string)
	OnDenied     func(name, reason string)
}

// LoopOptions contains configuration for the agent loop.
type LoopOptions struct {
	Provider    provider.LLMProvider
	Registry    *tools.Registry
	Gate        *safety.Interceptor
	Logger      *slog.Logger
	Hooks       Hooks
	MaxCycles   int
	MaxTokens   int
	Temperature float64
}

// Loop is the reasoning engine: it alternates between the model and the
// tool registry, with every invocation passing through the safety gate.
// One Loop processes one action at a time; it is not safe for
// concurrent Run calls.
type Loop struct {
	provider    provider.LLMProvider
	registry    *tools.Registry
	gate        *safety.Interceptor
	logger      *slog.Logger
	hooks       Hooks
	maxCycles   int
	maxTokens   int
	temperature float64
}

// NewLoop creates a new agent loop.
func NewLoop(opts LoopOptions) *Loop {
	maxCycles := opts.MaxCycles
	if maxCycles == 0 {
		maxCycles = 10
	}
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		provider:    opts.Provider,
		registry:    opts.Registry,
		gate:        opts.Gate,
		logger:      logger,
		hooks:       opts.Hooks,
		maxCycles:   maxCycles,
		maxTokens:   maxTokens,
		temperature: opts.Temperature,
	}
}

// Run drives one request to completion for the given profile. It
// returns the model's final answer, or an error when the model is
// unreachable or the cycle budget runs out. Denied invocations and tool
// failures are not errors; they flow back to the model as observations.
func (l *Loop) Run(ctx context.Context, profile *Profile, messages []provider.Message) (string, error) {
	toolDefs := l.buildToolDefinitions(profile)
	model := profile.Model

	for cycle := 0; cycle < l.maxCycles; cycle++ {
		start := time.Now()
		resp, err := l.provider.Chat(ctx, &provider.ChatRequest{
			Messages:    messages,
			Tools:       toolDefs,
			Model:       model,
			MaxTokens:   l.maxTokens,
			Temperature: l.temperature,
		})
		if err != nil {
			if errors.Is(err, provider.ErrModelUnavailable) {
				return "", err
			}
			return "", fmt.Errorf("model call failed: %w", err)
		}
		l.logger.Debug("model responded",
			"profile", profile.Name,
			"cycle", cycle+1,
			"tokens", resp.Usage.TotalTokens,
			"duration_ms", time.Since(start).Milliseconds(),
			"tool_calls", len(resp.ToolCalls))

		if len(resp.ToolCalls) == 0 {
			return resp.Content, nil
		}

		if resp.Content != "" && l.hooks.OnThought != nil {
			l.hooks.OnThought(resp.Content)
		}

		messages = append(messages, provider.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		// Tool calls run strictly one at a time: each result is observed
		// before the next action is considered.
		for _, tc := range resp.ToolCalls {
			messages = append(messages, l.dispatch(ctx, profile, tc))
		}
	}

	return "", fmt.Errorf("%w after %d cycles", ErrCycleBudgetExceeded, l.maxCycles)
}

// dispatch gates and executes one tool call, returning its observation
// message. Every outcome, including denial and failure, becomes a tool
// role message so the model can react.
func (l *Loop) dispatch(ctx context.Context, profile *Profile, tc provider.ToolCall) provider.Message {
	observe := func(content string) provider.Message {
		return provider.Message{Role: "tool", Content: content, ToolCallID: tc.ID}
	}

	t, err := l.registry.Lookup(tc.Name)
	if err != nil {
		l.logger.Warn("unknown tool requested", "tool", tc.Name, "profile", profile.Name)
		return observe(fmt.Sprintf("Error: %v", err))
	}
	if !profileAllows(profile, tc.Name) {
		return observe(fmt.Sprintf("Error: tool %q is not available to the %s agent", tc.Name, profile.Name))
	}

	if l.hooks.OnToolCall != nil {
		l.hooks.OnToolCall(tc.Name, tc.Arguments)
	}

	verdict := l.gate.Authorize(ctx, t, tc.Arguments, profile.Name, profile.RiskOverrides)
	if !verdict.Approved {
		l.logger.Info("invocation blocked", "tool", tc.Name, "reason", verdict.Reason)
		if l.hooks.OnDenied != nil {
			l.hooks.OnDenied(tc.Name, verdict.Reason)
		}
		return observe(fmt.Sprintf("Action not executed: %s. Acknowledge this and continue without it, or propose an alternative.", verdict.Reason))
	}

	result, err := t.Execute(ctx, tc.Arguments)
	if err != nil {
		result = fmt.Sprintf("Error: %v", err)
	}
	if l.hooks.OnToolResult != nil {
		l.hooks.OnToolResult(tc.Name, result)
	}
	l.logger.Debug("tool executed", "name", tc.Name, "result_length", len(result))
	return observe(result)
}

// buildToolDefinitions exposes the profile's tool surface to the model.
func (l *Loop) buildToolDefinitions(profile *Profile) []provider.ToolDefinition {
	var defs []provider.ToolDefinition
	for _, t := range l.registry.List() {
		if !profileAllows(profile, t.Name()) {
			continue
		}
		defs = append(defs, provider.ToolDefinition{
			Type: "function",
			Function: provider.FunctionDef{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}

func profileAllows(p *Profile, tool string) bool {
	if len(p.AllowedTools) == 0 {
		return true
	}
	for _, name := range p.AllowedTools {
		if name == tool {
			return true
		}
	}
	return false
}
