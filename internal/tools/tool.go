// Package tools provides the tool framework and built-in implementations
// for the agent.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Tool is the interface that all agent tools must implement.
type Tool interface {
	// Name returns the tool identifier used in function calls.
	Name() string
	// Description returns a human-readable description for the LLM.
	Description() string
	// Parameters returns the JSON Schema for tool parameters.
	Parameters() map[string]any
	// Execute runs the tool with the given parameters.
	// Returns result string and error. On error, return user-friendly message.
	Execute(ctx context.Context, params map[string]any) (string, error)
}

// RiskClass labels a tool as auto-executable or confirmation-gated.
type RiskClass int

const (
	// RiskGreen tools execute without human confirmation.
	RiskGreen RiskClass = iota
	// RiskRed tools require an explicit human approval before running.
	RiskRed
)

// String returns the lowercase label used in config files and logs.
func (r RiskClass) String() string {
	if r == RiskRed {
		return "red"
	}
	return "green"
}

// ParseRiskClass maps a config label to a RiskClass.
// Unknown labels resolve to RiskRed, the safe default.
func ParseRiskClass(s string) RiskClass {
	if s == "green" {
		return RiskGreen
	}
	return RiskRed
}

// ClassifiedTool is an optional interface for tools that declare a risk class.
type ClassifiedTool interface {
	Tool
	Risk() RiskClass
}

// DynamicTool is an optional interface for tools whose risk class depends
// on the bound arguments (e.g. shell execution).
type DynamicTool interface {
	Tool
	RiskFor(params map[string]any) RiskClass
}

// ToolRisk returns the declared risk class for a tool and argument set.
// Unclassified tools default to RiskRed: trust is declared, never assumed.
func ToolRisk(t Tool, params map[string]any) RiskClass {
	if dt, ok := t.(DynamicTool); ok {
		return dt.RiskFor(params)
	}
	if ct, ok := t.(ClassifiedTool); ok {
		return ct.Risk()
	}
	return RiskRed
}

// Registry errors.
var (
	ErrUnknownTool   = errors.New("unknown tool")
	ErrDuplicateName = errors.New("duplicate tool name")
)

// Registry manages tool registration and execution.
// Registration order is preserved for List.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates a new tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry.
// Fails with ErrDuplicateName if a tool with the same name exists;
// duplicates are rejected at registration so bad wiring fails at
// startup or skill-creation time, not mid-execution.
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	r.tools[name] = tool
	r.order = append(r.order, name)
	return nil
}

// Deregister removes a tool by name. Returns false if no such tool is
// registered. Callers use this to roll back a registration whose
// follow-up work (e.g. persistence) failed.
func (r *Registry) Deregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; !exists {
		return false
	}
	delete(r.tools, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Lookup returns a tool by name, or ErrUnknownTool.
func (r *Registry) Lookup(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return tool, nil
}

// List returns all registered tools in registration order.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.tools[name])
	}
	return result
}

// Execute runs a tool by name with the given parameters.
// The caller is expected to have passed the call through the safety
// interceptor first; Execute itself makes no risk decisions.
func (r *Registry) Execute(ctx context.Context, name string, params map[string]any) (string, error) {
	tool, err := r.Lookup(name)
	if err != nil {
		return "", err
	}
	return tool.Execute(ctx, params)
}

// GetString extracts a string parameter with a default value.
func GetString(params map[string]any, key string, defaultVal string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return defaultVal
}

// GetInt extracts an int parameter with a default value.
func GetInt(params map[string]any, key string, defaultVal int) int {
	if v, ok := params[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		}
	}
	return defaultVal
}

// GetBool extracts a bool parameter with a default value.
func GetBool(params map[string]any, key string, defaultVal bool) bool {
	if v, ok := params[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return defaultVal
}
