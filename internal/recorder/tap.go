package recorder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// CommandRunner executes one demonstrated command and returns its
// output. The recorder stores output verbatim alongside the command.
type CommandRunner func(ctx context.Context, command string) string

// LineTap reads demonstrated commands line by line, runs each through
// the runner, and echoes the output back to the terminal. Reads happen
// on a background goroutine so Next honors context cancellation even
// while blocked on stdin.
type LineTap struct {
	runner CommandRunner
	out    io.Writer

	once  sync.Once
	lines chan string
	errCh chan error
	src   io.Reader
}

// NewLineTap creates a tap over in/out.
func NewLineTap(in io.Reader, out io.Writer, runner CommandRunner) *LineTap {
	return &LineTap{
		runner: runner,
		out:    out,
		src:    in,
		lines:  make(chan string),
		errCh:  make(chan error, 1),
	}
}

func (t *LineTap) start() {
	go func() {
		scanner := bufio.NewScanner(t.src)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			t.lines <- scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			t.errCh <- err
		} else {
			t.errCh <- io.EOF
		}
	}()
}

// Next returns the next demonstrated step. io.EOF means the terminal
// disconnected.
func (t *LineTap) Next(ctx context.Context) (Step, error) {
	t.once.Do(t.start)

	for {
		select {
		case <-ctx.Done():
			return Step{}, ctx.Err()
		case err := <-t.errCh:
			return Step{}, err
		case line := <-t.lines:
			if line == "" {
				continue
			}
			step := Step{Command: line}
			if strings.ToLower(strings.TrimSpace(line)) != StopToken && t.runner != nil {
				step.Output = t.runner(ctx, line)
				if t.out != nil && step.Output != "" {
					fmt.Fprintln(t.out, step.Output)
				}
			}
			return step, nil
		}
	}
}
