package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/donna-agent/donna/internal/recorder"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a terminal session and learn it as a skill",
	Long: `Record starts a capture shell. Every command you type is executed and
captured together with its output. Type 'stop' to end the recording;
donna then synthesizes the demonstration into a reusable skill.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		return runRecord(cmd, a)
	},
}

func runRecord(cmd *cobra.Command, a *app) error {
	color.Magenta("Recording. Demonstrate the workflow; type 'stop' when done.")

	runner := func(ctx context.Context, command string) string {
		output, failure := a.shell.Run(ctx, command, "")
		if failure != nil {
			return fmt.Sprintf("%s\n[%v]", output, failure)
		}
		return output
	}
	tap := recorder.NewLineTap(os.Stdin, os.Stdout, runner)

	outcome, err := a.recorder.Record(cmd.Context(), tap)
	if err != nil {
		if errors.Is(err, recorder.ErrSynthesisFailed) {
			color.Red("Recording captured %d steps but synthesis failed: %v", len(outcome.Steps), err)
			color.Red("Nothing was registered.")
			return err
		}
		color.Red("Recording aborted: %v", err)
		return err
	}

	color.Green("Learned skill %q from %d steps.", outcome.Skill.Name, len(outcome.Steps))
	fmt.Printf("  %s\n", outcome.Skill.Description)
	fmt.Println("  It is registered as a red tool: every run will ask for confirmation.")
	return nil
}
