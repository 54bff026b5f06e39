// Package cli implements the donna command line interface.
package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/donna-agent/donna/internal/cli.version=1.2.3"
	version = "0.4.0"
	logo    = "\n" +
		"      _\n" +
		"   __| | ___  _ __  _ __   __ _\n" +
		"  / _` |/ _ \\| '_ \\| '_ \\ / _` |\n" +
		" | (_| | (_) | | | | | | | (_| |\n" +
		"  \\__,_|\\___/|_| |_|_| |_|\\__,_|\n"
)

var rootCmd = &cobra.Command{
	Use:   "donna",
	Short: "donna - terminal automation agent",
	Long: color.MagentaString(logo) +
		"\nA terminal-resident agent that executes real actions on your machine,\nwith every risky action gated behind your explicit confirmation.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the donna version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("donna %s\n", version)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(skillsCmd)
	rootCmd.AddCommand(infoCmd)
}
