// Package system probes the user's machine so agents know what they
// are working with: OS, user, shell, and which developer tools are
// actually installed. The snapshot is injected into every agent's
// system prompt and cached for the life of the process.
package system

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
)

const probeTimeout = 5 * time.Second

// toolProbes lists the tools worth advertising to the model, in the
// order they appear in the prompt.
var toolProbes = []struct {
	Name string
	Cmd  string
	Args []string
}{
	{"Git", "git", []string{"--version"}},
	{"Python", "python3", []string{"--version"}},
	{"pip", "pip3", []string{"--version"}},
	{"Conda", "conda", []string{"--version"}},
	{"Node", "node", []string{"--version"}},
	{"npm", "npm", []string{"--version"}},
	{"Docker", "docker", []string{"--version"}},
	{"Go", "go", []string{"version"}},
	{"Rust", "rustc", []string{"--version"}},
	{"Java", "java", []string{"-version"}},
}

// ToolVersion is one detected tool and its version line.
type ToolVersion struct {
	Name    string
	Version string
}

// Fingerprint is a snapshot of the machine the agent runs on.
type Fingerprint struct {
	OS        string
	Hostname  string
	Username  string
	HomeDir   string
	WorkDir   string
	Shell     string
	Installed []ToolVersion
	Missing   []string
}

// Detect probes the system. Probes are cheap: each tool is looked up
// on PATH first and only then asked for its version, with a hard
// per-probe timeout.
func Detect(ctx context.Context) *Fingerprint {
	fp := &Fingerprint{
		OS:    runtime.GOOS + " " + runtime.GOARCH,
		Shell: os.Getenv("SHELL"),
	}
	if fp.Shell == "" {
		fp.Shell = "/bin/sh"
	}
	fp.Hostname, _ = os.Hostname()
	fp.HomeDir, _ = os.UserHomeDir()
	fp.WorkDir, _ = os.Getwd()
	fp.Username = os.Getenv("USER")
	if fp.Username == "" {
		fp.Username = os.Getenv("USERNAME")
	}

	for _, probe := range toolProbes {
		if _, err := exec.LookPath(probe.Cmd); err != nil {
			fp.Missing = append(fp.Missing, probe.Name)
			continue
		}
		version := probeVersion(ctx, probe.Cmd, probe.Args)
		if version == "" {
			fp.Missing = append(fp.Missing, probe.Name)
			continue
		}
		fp.Installed = append(fp.Installed, ToolVersion{Name: probe.Name, Version: version})
	}
	return fp
}

// probeVersion runs a version command and returns the first output
// line. Some tools (java) print versions on stderr.
func probeVersion(ctx context.Context, command string, args []string) string {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, command, args...).CombinedOutput()
	if err != nil && len(out) == 0 {
		return ""
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(line)
}

// PromptSection renders the fingerprint as a system-prompt block.
func (fp *Fingerprint) PromptSection() string {
	var b strings.Builder
	b.WriteString("## System Environment (auto-detected)\n")
	fmt.Fprintf(&b, "- OS: %s\n", fp.OS)
	fmt.Fprintf(&b, "- Host: %s\n", fp.Hostname)
	fmt.Fprintf(&b, "- User: %s\n", fp.Username)
	fmt.Fprintf(&b, "- Home: %s\n", fp.HomeDir)
	fmt.Fprintf(&b, "- CWD: %s\n", fp.WorkDir)
	fmt.Fprintf(&b, "- Shell: %s\n", fp.Shell)

	if len(fp.Installed) > 0 {
		b.WriteString("\n### Installed Tools\n")
		for _, tv := range fp.Installed {
			fmt.Fprintf(&b, "- %s: %s\n", tv.Name, tv.Version)
		}
	}
	if len(fp.Missing) > 0 {
		b.WriteString("\n### Not Installed (do not use these)\n")
		for _, name := range fp.Missing {
			fmt.Fprintf(&b, "- %s\n", name)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Prober caches one fingerprint for the life of the process. Probes
// run on first use, not at startup, so commands that never build a
// prompt pay nothing.
type Prober struct {
	once sync.Once
	fp   *Fingerprint
}

// Get returns the cached fingerprint, detecting it on first call.
func (p *Prober) Get(ctx context.Context) *Fingerprint {
	p.once.Do(func() { p.fp = Detect(ctx) })
	return p.fp
}
