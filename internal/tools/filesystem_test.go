package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteThenReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "note.txt")
	ctx := context.Background()

	w := NewWriteFileTool()
	if _, err := w.Execute(ctx, map[string]any{"path": path, "content": "remember the milk"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	r := NewReadFileTool()
	result, err := r.Execute(ctx, map[string]any{"path": path})
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !strings.Contains(result, "remember the milk") {
		t.Errorf("unexpected read result: %q", result)
	}
}

func TestReadFileMissing(t *testing.T) {
	r := NewReadFileTool()
	result, err := r.Execute(context.Background(), map[string]any{"path": filepath.Join(t.TempDir(), "absent.txt")})
	if err != nil {
		t.Fatalf("missing file should not be a hard error: %v", err)
	}
	if !strings.Contains(result, "Error") {
		t.Errorf("expected error text in result, got %q", result)
	}
}

func TestDeleteFileRefusesDirectory(t *testing.T) {
	dir := t.TempDir()
	d := NewDeleteFileTool()
	result, err := d.Execute(context.Background(), map[string]any{"path": dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, "Error") {
		t.Errorf("deleting a directory should be refused, got %q", result)
	}
	if _, statErr := os.Stat(dir); statErr != nil {
		t.Error("directory was removed")
	}
}

func TestListDirMarksEntries(t *testing.T) {
	dir := t.TempDir()
	os.Mkdir(filepath.Join(dir, "sub"), 0o755)
	os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644)

	l := NewListDirTool()
	result, err := l.Execute(context.Background(), map[string]any{"path": dir})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(result, "[DIR]") || !strings.Contains(result, "[FILE]") {
		t.Errorf("expected DIR and FILE markers, got %q", result)
	}
}

func TestFindFilesMatchesPattern(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main"), 0o644)
	os.WriteFile(filepath.Join(dir, "readme.md"), []byte("# hi"), 0o644)

	f := NewFindFilesTool()
	result, err := f.Execute(context.Background(), map[string]any{"path": dir, "pattern": "*.go"})
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if !strings.Contains(result, "main.go") {
		t.Errorf("expected main.go in results, got %q", result)
	}
	if strings.Contains(result, "readme.md") {
		t.Errorf("readme.md should not match *.go, got %q", result)
	}
}
