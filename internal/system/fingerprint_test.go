package system

import (
	"context"
	"strings"
	"testing"
)

func TestDetectBasics(t *testing.T) {
	fp := Detect(context.Background())

	if fp.OS == "" || fp.WorkDir == "" || fp.Shell == "" {
		t.Errorf("incomplete fingerprint %+v", fp)
	}
	// Every probe lands in exactly one bucket.
	if len(fp.Installed)+len(fp.Missing) != len(toolProbes) {
		t.Errorf("probes unaccounted for: %d installed + %d missing != %d",
			len(fp.Installed), len(fp.Missing), len(toolProbes))
	}
	for _, tv := range fp.Installed {
		if tv.Version == "" {
			t.Errorf("installed tool %s has no version line", tv.Name)
		}
	}
}

func TestPromptSection(t *testing.T) {
	fp := &Fingerprint{
		OS:        "linux amd64",
		Hostname:  "box",
		Username:  "dev",
		Shell:     "/bin/bash",
		Installed: []ToolVersion{{Name: "Git", Version: "git version 2.39.5"}},
		Missing:   []string{"Docker"},
	}

	section := fp.PromptSection()
	for _, want := range []string{
		"## System Environment (auto-detected)",
		"- OS: linux amd64",
		"- Git: git version 2.39.5",
		"Not Installed",
		"- Docker",
	} {
		if !strings.Contains(section, want) {
			t.Errorf("prompt section missing %q:\n%s", want, section)
		}
	}
}

func TestProberCaches(t *testing.T) {
	var p Prober
	first := p.Get(context.Background())
	second := p.Get(context.Background())
	if first != second {
		t.Error("prober should return the same snapshot")
	}
}

func TestProbeVersionMissingCommand(t *testing.T) {
	if v := probeVersion(context.Background(), "definitely-not-a-command-xyz", nil); v != "" {
		t.Errorf("expected empty version, got %q", v)
	}
}
