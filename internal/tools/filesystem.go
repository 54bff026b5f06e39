package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

// ReadFileTool reads the contents of a file.
type ReadFileTool struct{}

func (t *ReadFileTool) Name() string    { return "read_file" }
func (t *ReadFileTool) Risk() RiskClass { return RiskGreen }

func (t *ReadFileTool) Description() string {
	return "Read the contents of a file at the specified path."
}

func (t *ReadFileTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "The path to the file to read",
			},
		},
		"required": []string{"path"},
	}
}

func (t *ReadFileTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	path := GetString(params, "path", "")
	if path == "" {
		return "Error: path is required", nil
	}
	path = expandPath(path)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("Error: file not found: %s", path), nil
		}
		return fmt.Sprintf("Error reading file: %v", err), nil
	}
	if info.IsDir() {
		return fmt.Sprintf("Error: not a file: %s", path), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return fmt.Sprintf("Error: permission denied: %s", path), nil
		}
		return fmt.Sprintf("Error reading file: %v", err), nil
	}
	if !utf8.Valid(content) {
		return fmt.Sprintf("Error: cannot read binary file as text: %s", path), nil
	}

	return string(content), nil
}

// WriteFileTool writes content to a file, creating or overwriting it.
type WriteFileTool struct{}

func (t *WriteFileTool) Name() string    { return "write_file" }
func (t *WriteFileTool) Risk() RiskClass { return RiskRed }

func (t *WriteFileTool) Description() string {
	return "Write content to a file (creates or overwrites). Creates parent directories if needed."
}

func (t *WriteFileTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "The path to the file to write",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "The content to write to the file",
			},
		},
		"required": []string{"path", "content"},
	}
}

func (t *WriteFileTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	path := GetString(params, "path", "")
	content := GetString(params, "content", "")

	if path == "" {
		return "Error: path is required", nil
	}
	path = expandPath(path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Sprintf("Error creating directory: %v", err), nil
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		if os.IsPermission(err) {
			return fmt.Sprintf("Error: permission denied: %s", path), nil
		}
		return fmt.Sprintf("Error writing file: %v", err), nil
	}

	return fmt.Sprintf("Successfully wrote %d bytes to %s", len(content), path), nil
}

// DeleteFileTool removes a single file from disk.
type DeleteFileTool struct{}

func (t *DeleteFileTool) Name() string    { return "delete_file" }
func (t *DeleteFileTool) Risk() RiskClass { return RiskRed }

func (t *DeleteFileTool) Description() string {
	return "Delete a file from disk. Refuses directories."
}

func (t *DeleteFileTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "The path to the file to delete",
			},
		},
		"required": []string{"path"},
	}
}

func (t *DeleteFileTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	path := GetString(params, "path", "")
	if path == "" {
		return "Error: path is required", nil
	}
	path = expandPath(path)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("Error: file not found: %s", path), nil
		}
		return fmt.Sprintf("Error: %v", err), nil
	}
	// Deleting a directory tree is never a single CRUD primitive.
	if info.IsDir() {
		return fmt.Sprintf("Error: not a file (refusing to delete non-file): %s", path), nil
	}

	if err := os.Remove(path); err != nil {
		if os.IsPermission(err) {
			return fmt.Sprintf("Error: permission denied: %s", path), nil
		}
		return fmt.Sprintf("Error deleting file: %v", err), nil
	}

	return fmt.Sprintf("Deleted %s", path), nil
}

// ListDirTool lists directory contents.
type ListDirTool struct{}

func (t *ListDirTool) Name() string    { return "list_dir" }
func (t *ListDirTool) Risk() RiskClass { return RiskGreen }

func (t *ListDirTool) Description() string {
	return "List the contents of a directory."
}

func (t *ListDirTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "The directory path to list (defaults to current directory)",
			},
		},
	}
}

func (t *ListDirTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	path := GetString(params, "path", ".")
	path = expandPath(path)

	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("Error: directory not found: %s", path), nil
		}
		if os.IsPermission(err) {
			return fmt.Sprintf("Error: permission denied: %s", path), nil
		}
		return fmt.Sprintf("Error reading directory: %v", err), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Contents of %s:\n", path))
	for _, entry := range entries {
		if entry.IsDir() {
			result.WriteString(fmt.Sprintf("  [DIR]  %s/\n", entry.Name()))
			continue
		}
		if info, err := entry.Info(); err == nil {
			result.WriteString(fmt.Sprintf("  [FILE] %s (%s)\n", entry.Name(), humanSize(info.Size())))
		} else {
			result.WriteString(fmt.Sprintf("  [FILE] %s\n", entry.Name()))
		}
	}

	return result.String(), nil
}

// FindFilesTool recursively matches files under a root by glob pattern.
type FindFilesTool struct{}

const findFilesCap = 50

func (t *FindFilesTool) Name() string    { return "find_files" }
func (t *FindFilesTool) Risk() RiskClass { return RiskGreen }

func (t *FindFilesTool) Description() string {
	return "Recursively find files matching a glob pattern (e.g. '*.go', 'test_*')."
}

func (t *FindFilesTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"pattern": map[string]any{
				"type":        "string",
				"description": "Glob pattern to match file names against",
			},
			"path": map[string]any{
				"type":        "string",
				"description": "Root directory to search from (defaults to current directory)",
			},
		},
		"required": []string{"pattern"},
	}
}

func (t *FindFilesTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	pattern := GetString(params, "pattern", "")
	root := expandPath(GetString(params, "path", "."))
	if pattern == "" {
		return "Error: pattern is required", nil
	}
	if _, err := os.Stat(root); err != nil {
		return fmt.Sprintf("Error: directory not found: %s", root), nil
	}

	var matches []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		name := d.Name()
		if d.IsDir() && (name == ".git" || name == "node_modules" || name == "__pycache__") {
			return filepath.SkipDir
		}
		if d.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(pattern, name); ok {
			if rel, err := filepath.Rel(root, path); err == nil {
				matches = append(matches, rel)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Sprintf("Error searching: %v", err), nil
	}
	if len(matches) == 0 {
		return fmt.Sprintf("No files matching %q found under %s", pattern, root), nil
	}
	sort.Strings(matches)

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Found %d file(s) matching %q:\n", len(matches), pattern))
	for i, m := range matches {
		if i >= findFilesCap {
			result.WriteString(fmt.Sprintf("  ... and %d more\n", len(matches)-findFilesCap))
			break
		}
		result.WriteString("  " + m + "\n")
	}
	return result.String(), nil
}

// NewReadFileTool creates a new ReadFileTool.
func NewReadFileTool() *ReadFileTool { return &ReadFileTool{} }

// NewWriteFileTool creates a new WriteFileTool.
func NewWriteFileTool() *WriteFileTool { return &WriteFileTool{} }

// NewDeleteFileTool creates a new DeleteFileTool.
func NewDeleteFileTool() *DeleteFileTool { return &DeleteFileTool{} }

// NewListDirTool creates a new ListDirTool.
func NewListDirTool() *ListDirTool { return &ListDirTool{} }

// NewFindFilesTool creates a new FindFilesTool.
func NewFindFilesTool() *FindFilesTool { return &FindFilesTool{} }

func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[1:])
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}
