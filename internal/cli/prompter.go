package cli

import (
	"context"
	"io"

	"github.com/fatih/color"

	"github.com/donna-agent/donna/internal/safety"
)

// terminalPrompter asks for red-action confirmation on the terminal.
// The literal invocation is always printed before blocking so the user
// sees exactly what would run. It reads through the shared lineReader
// and honors its context, so a timed-out prompt releases stdin instead
// of consuming the user's next line.
type terminalPrompter struct {
	in  *lineReader
	out io.Writer
}

func (p *terminalPrompter) Ask(ctx context.Context, req safety.ConfirmRequest) (string, error) {
	warn := color.New(color.FgRed, color.Bold)
	warn.Fprintln(p.out, "\n  ! Confirmation required")
	color.New(color.FgWhite).Fprintf(p.out, "  %s agent wants to run:\n", req.Profile)
	color.New(color.FgYellow).Fprintf(p.out, "    %s\n", safety.FormatInvocation(req.Tool, req.Arguments))
	color.New(color.FgWhite).Fprint(p.out, "  Proceed? [y/N]: ")

	return p.in.ReadLine(ctx)
}
