package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"syscall"
	"time"
)

// Maximum output length returned to the model, to avoid flooding context.
const maxShellOutputChars = 8000

// safeCommandPattern matches read-only, informational commands that are
// auto-approved without confirmation. Anything else is red.
var safeCommandPattern = regexp.MustCompile(`(?i)^(` +
	`echo\s|` +
	`hostname$|` +
	`whoami$|` +
	`pwd$|` +
	`date(\s|$)|` +
	`uptime$|` +
	`uname(\s|$)|` +
	`ls(\s|$)|` +
	`cat\s|` +
	`head\s|` +
	`tail\s|` +
	`wc(\s|$)|` +
	`which\s|` +
	`env$|` +
	`df(\s|$)|` +
	`du\s|` +
	`ps(\s|$)|` +
	`python3?\s+(--version|-V)$|` +
	`pip3?\s+(list|show|freeze)|` +
	`node\s+--version$|` +
	`go\s+version$|` +
	`git\s+(status|log|branch|diff|show)` +
	`)`)

// IsSafeCommand reports whether a shell command is read-only / informational.
// The safety interceptor uses this for dynamic green/red classification.
func IsSafeCommand(command string) bool {
	return safeCommandPattern.MatchString(strings.TrimSpace(command))
}

// ExecShellTool executes shell commands with a wall-clock timeout.
type ExecShellTool struct {
	Timeout time.Duration
}

// NewExecShellTool creates a shell execution tool. A zero timeout
// defaults to two minutes.
func NewExecShellTool(timeout time.Duration) *ExecShellTool {
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &ExecShellTool{Timeout: timeout}
}

func (t *ExecShellTool) Name() string { return "execute_shell" }

// RiskFor classifies per invocation: known read-only commands are green,
// everything else is red.
func (t *ExecShellTool) RiskFor(params map[string]any) RiskClass {
	if IsSafeCommand(GetString(params, "command", "")) {
		return RiskGreen
	}
	return RiskRed
}

func (t *ExecShellTool) Description() string {
	return "Execute a shell command and return its output."
}

func (t *ExecShellTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type":        "string",
				"description": "The shell command to execute",
			},
			"cwd": map[string]any{
				"type":        "string",
				"description": "Working directory for the command (defaults to current directory)",
			},
		},
		"required": []string{"command"},
	}
}

func (t *ExecShellTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	command := GetString(params, "command", "")
	cwd := GetString(params, "cwd", "")

	result, failure := t.Run(ctx, command, cwd)
	if failure != nil {
		switch failure.Kind {
		case FailArgs:
			return fmt.Sprintf("Error: %v", failure.Err), nil
		case FailTimeout:
			return fmt.Sprintf("Error: command timed out after %v\n%s", t.Timeout, result), nil
		case FailSpawn:
			return fmt.Sprintf("Error starting command: %v", failure.Err), nil
		case FailExit:
			// Nonzero exit is still useful output for the model.
			return fmt.Sprintf("[EXIT CODE: %d]\n%s", failure.ExitCode, result), nil
		default:
			return fmt.Sprintf("Error executing command: %v", failure.Err), nil
		}
	}
	return fmt.Sprintf("[EXIT CODE: 0]\n%s", result), nil
}

// Run starts the command, captures stdout/stderr until exit or timeout,
// and returns the combined output plus a Failure on bad arguments, spawn
// error, timeout, or nonzero exit. On timeout the shell's whole process
// group is killed, so forked children do not outlive the deadline or
// keep Run blocked on their open pipes.
func (t *ExecShellTool) Run(ctx context.Context, command, cwd string) (string, *Failure) {
	if strings.TrimSpace(command) == "" {
		return "", NewFailure(t.Name(), FailArgs, errors.New("command is required"))
	}

	timeout := t.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	if cwd != "" {
		cmd.Dir = expandPath(cwd)
	}

	// The shell gets its own process group and the deadline kills the
	// group, not just sh. Signalling only sh would leave forked children
	// running with the output pipes open, and Run would block on them
	// long past the deadline.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	// Hard bound on the post-kill wait in case a detached process
	// escaped the group and still holds a pipe.
	cmd.WaitDelay = 2 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	output := combineOutput(stdout.String(), stderr.String())

	if ctx.Err() == context.DeadlineExceeded {
		return output, NewFailure(t.Name(), FailTimeout, ctx.Err())
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return output, &Failure{Kind: FailExit, Tool: t.Name(), ExitCode: exitErr.ExitCode(), Err: err}
		}
		if errors.Is(err, exec.ErrWaitDelay) {
			// Pipes were force-closed; output may be incomplete.
			return output, NewFailure(t.Name(), FailIO, err)
		}
		return output, NewFailure(t.Name(), FailSpawn, err)
	}
	return output, nil
}

func combineOutput(stdout, stderr string) string {
	var parts []string
	if stdout != "" {
		parts = append(parts, stdout)
	}
	if stderr != "" {
		parts = append(parts, "[STDERR]\n"+stderr)
	}
	output := strings.Join(parts, "\n")
	if output == "" {
		output = "(no output)"
	}
	if len(output) > maxShellOutputChars {
		output = output[:maxShellOutputChars] + "\n... (output truncated)"
	}
	return output
}
