package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Provider.Backend != "groq" {
		t.Errorf("default backend = %q", cfg.Provider.Backend)
	}
	if cfg.Agent.MaxCycles != 10 {
		t.Errorf("default max cycles = %d", cfg.Agent.MaxCycles)
	}
	if cfg.Safety.MaxRedPerSession != 10 || cfg.Safety.ConfirmTimeoutSeconds != 120 {
		t.Errorf("unexpected safety defaults %+v", cfg.Safety)
	}
	if len(cfg.Safety.Affirmatives) != 2 {
		t.Errorf("expected y and yes, got %v", cfg.Safety.Affirmatives)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
provider:
  backend: ollama
  model: qwen2.5:7b
agent:
  maxCycles: 4
  criticEnabled: true
safety:
  redKeywords: [rm, sudo, mkfs]
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DONNA_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Provider.Backend != "ollama" || cfg.Provider.Model != "qwen2.5:7b" {
		t.Errorf("file values not applied: %+v", cfg.Provider)
	}
	if cfg.Agent.MaxCycles != 4 || !cfg.Agent.CriticEnabled {
		t.Errorf("agent values not applied: %+v", cfg.Agent)
	}
	if len(cfg.Safety.RedKeywords) != 3 || cfg.Safety.RedKeywords[2] != "mkfs" {
		t.Errorf("keywords not applied: %v", cfg.Safety.RedKeywords)
	}
	// Untouched sections keep their defaults.
	if cfg.Tools.ShellTimeoutSeconds != 120 {
		t.Errorf("defaults lost: %+v", cfg.Tools)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("provider:\n  backend: ollama\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DONNA_CONFIG", path)
	t.Setenv("DONNA_PROVIDER_BACKEND", "openai")
	t.Setenv("DONNA_AGENT_MAX_CYCLES", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Provider.Backend != "openai" {
		t.Errorf("env should win over file, got %q", cfg.Provider.Backend)
	}
	if cfg.Agent.MaxCycles != 7 {
		t.Errorf("env int not applied, got %d", cfg.Agent.MaxCycles)
	}
}

func TestAPIKeyFallback(t *testing.T) {
	t.Setenv("DONNA_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("GROQ_API_KEY", "gsk_test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Provider.APIKey != "gsk_test" {
		t.Errorf("expected key fallback, got %q", cfg.Provider.APIKey)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("DONNA_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Provider.Backend != "groq" {
		t.Errorf("expected defaults, got %+v", cfg.Provider)
	}
}

func TestSaveRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("DONNA_CONFIG", path)

	cfg := DefaultConfig()
	cfg.Provider.Backend = "ollama"
	if err := Save(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Provider.Backend != "ollama" {
		t.Errorf("roundtrip lost backend, got %q", loaded.Provider.Backend)
	}
}
