package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Manage standing corrections for the agents",
}

var feedbackAddCmd = &cobra.Command{
	Use:   "add <agent> <text...>",
	Short: "Record a correction an agent must follow from now on",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		profile := strings.ToLower(args[0])
		if a.profiles.Get(profile) == nil {
			return fmt.Errorf("unknown agent %q (have: %s)", profile, profileNames(a))
		}

		entry, err := a.feedback.Append(cmd.Context(), profile, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		color.Green("Noted. %s will be reminded of this in every future session (entry #%d).", profile, entry.ID)
		return nil
	},
}

var feedbackListCmd = &cobra.Command{
	Use:   "list <agent>",
	Short: "Show every correction recorded for an agent, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		profile := strings.ToLower(args[0])
		entries, err := a.feedback.Recall(cmd.Context(), profile)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Printf("No feedback recorded for %s.\n", profile)
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%4d  %s  %s\n", e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Content)
		}
		return nil
	},
}

func profileNames(a *app) string {
	var names []string
	for _, p := range a.profiles.All() {
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}

func init() {
	feedbackCmd.AddCommand(feedbackAddCmd)
	feedbackCmd.AddCommand(feedbackListCmd)
}
