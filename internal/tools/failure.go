package tools

import "fmt"

// FailureKind discriminates the ways a tool execution can fail.
type FailureKind string

const (
	FailSpawn   FailureKind = "spawn"
	FailTimeout FailureKind = "timeout"
	FailExit    FailureKind = "nonzero_exit"
	FailIO      FailureKind = "io"
	FailArgs    FailureKind = "bad_arguments"
)

// Failure describes a tool-level error. Failures are recoverable: the
// reasoning loop feeds them back to the model as observations instead
// of aborting the task.
type Failure struct {
	Kind     FailureKind
	Tool     string
	ExitCode int
	Err      error
}

func (f *Failure) Error() string {
	if f.Kind == FailExit {
		return fmt.Sprintf("tool %s: exit code %d", f.Tool, f.ExitCode)
	}
	if f.Err != nil {
		return fmt.Sprintf("tool %s: %s: %v", f.Tool, f.Kind, f.Err)
	}
	return fmt.Sprintf("tool %s: %s", f.Tool, f.Kind)
}

func (f *Failure) Unwrap() error { return f.Err }

// NewFailure builds a Failure for the given tool and kind.
func NewFailure(tool string, kind FailureKind, err error) *Failure {
	return &Failure{Kind: kind, Tool: tool, Err: err}
}
