package tools

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
)

// ReadClipboardTool returns the current system clipboard text. This is
// what powers the @fix and @explain shortcuts: the user copies an error
// log or snippet and the agent reads it automatically.
type ReadClipboardTool struct{}

func (t *ReadClipboardTool) Name() string    { return "read_clipboard" }
func (t *ReadClipboardTool) Risk() RiskClass { return RiskGreen }

func (t *ReadClipboardTool) Description() string {
	return "Read the current contents of the system clipboard."
}

func (t *ReadClipboardTool) Parameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (t *ReadClipboardTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	content, err := clipboard.ReadAll()
	if err != nil {
		return fmt.Sprintf("Error: clipboard access failed: %v", err), nil
	}
	if content == "" {
		return "(clipboard is empty)", nil
	}
	return content, nil
}

// WriteClipboardTool copies text to the system clipboard. Green: the
// user can always paste elsewhere or overwrite it again.
type WriteClipboardTool struct{}

func (t *WriteClipboardTool) Name() string    { return "write_clipboard" }
func (t *WriteClipboardTool) Risk() RiskClass { return RiskGreen }

func (t *WriteClipboardTool) Description() string {
	return "Copy text to the system clipboard."
}

func (t *WriteClipboardTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{
				"type":        "string",
				"description": "The text to copy",
			},
		},
		"required": []string{"text"},
	}
}

func (t *WriteClipboardTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	text := GetString(params, "text", "")
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Sprintf("Error: clipboard access failed: %v", err), nil
	}
	return fmt.Sprintf("Copied %d characters to clipboard.", len(text)), nil
}

// NewReadClipboardTool creates a new ReadClipboardTool.
func NewReadClipboardTool() *ReadClipboardTool { return &ReadClipboardTool{} }

// NewWriteClipboardTool creates a new WriteClipboardTool.
func NewWriteClipboardTool() *WriteClipboardTool { return &WriteClipboardTool{} }
