package tools

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"syscall"
)

// LaunchAppTool opens an application, file, or URL with the OS default
// handler. Opening something is non-destructive, so it is green.
type LaunchAppTool struct{}

func (t *LaunchAppTool) Name() string    { return "launch_app" }
func (t *LaunchAppTool) Risk() RiskClass { return RiskGreen }

func (t *LaunchAppTool) Description() string {
	return "Launch an application or open a file/URL with the default handler."
}

func (t *LaunchAppTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"target": map[string]any{
				"type":        "string",
				"description": "Application name, file path, or URL to open",
			},
		},
		"required": []string{"target"},
	}
}

func (t *LaunchAppTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	target := GetString(params, "target", "")
	if target == "" {
		return "Error: target is required", nil
	}

	opener := "xdg-open"
	if runtime.GOOS == "darwin" {
		opener = "open"
	}
	cmd := exec.Command(opener, target)
	if err := cmd.Start(); err != nil {
		return fmt.Sprintf("Error: failed to launch %q: %v", target, err), nil
	}
	// Detach: the launched app outlives the agent process.
	go func() { _ = cmd.Wait() }()

	return fmt.Sprintf("Launched: %s", target), nil
}

// KillProcessTool terminates a process by PID. Killing a process can
// lose unsaved work, so it is red.
type KillProcessTool struct{}

func (t *KillProcessTool) Name() string    { return "kill_process" }
func (t *KillProcessTool) Risk() RiskClass { return RiskRed }

func (t *KillProcessTool) Description() string {
	return "Kill a running process by its PID (sends SIGTERM)."
}

func (t *KillProcessTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"pid": map[string]any{
				"type":        "integer",
				"description": "The process ID to terminate",
			},
		},
		"required": []string{"pid"},
	}
}

func (t *KillProcessTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	pid := GetInt(params, "pid", 0)
	if pid <= 0 {
		return "Error: pid is required", nil
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Sprintf("Error: no process found with PID %d", pid), nil
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		if err == os.ErrProcessDone || err == syscall.ESRCH {
			return fmt.Sprintf("Error: no process found with PID %d", pid), nil
		}
		if err == syscall.EPERM {
			return fmt.Sprintf("Error: permission denied to kill PID %d", pid), nil
		}
		return fmt.Sprintf("Error: %v", err), nil
	}

	return fmt.Sprintf("Sent SIGTERM to PID %d.", pid), nil
}

// NewLaunchAppTool creates a new LaunchAppTool.
func NewLaunchAppTool() *LaunchAppTool { return &LaunchAppTool{} }

// NewKillProcessTool creates a new KillProcessTool.
func NewKillProcessTool() *KillProcessTool { return &KillProcessTool{} }
