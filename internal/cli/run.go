package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <request...>",
	Short: "Run a single request and exit",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		result, err := a.pipeline.Handle(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			printRunError(err)
			return err
		}
		fmt.Println(result.Answer)
		return nil
	},
}
