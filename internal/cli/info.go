package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/donna-agent/donna/internal/tools"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show configuration, agents, and available tools",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		fmt.Printf("donna %s\n\n", version)
		fmt.Printf("Provider:  %s (model %s)\n", a.cfg.Provider.Backend, a.provider.DefaultModel())
		fmt.Printf("Data dir:  %s\n", a.cfg.Paths.DataDir)
		fmt.Printf("Red limit: %d per session\n\n", a.cfg.Safety.MaxRedPerSession)

		fmt.Println("Agents:")
		for _, p := range a.profiles.All() {
			count, _ := a.feedback.Count(cmd.Context(), p.Name)
			fmt.Printf("  %-10s %s (%d corrections on file)\n", p.Name, p.Description, count)
		}

		fmt.Println("\nTools:")
		for _, t := range a.registry.List() {
			risk := tools.ToolRisk(t, nil)
			label := color.GreenString("green")
			if risk == tools.RiskRed {
				label = color.RedString("red  ")
			}
			if _, dynamic := t.(tools.DynamicTool); dynamic {
				label = color.YellowString("mixed")
			}
			fmt.Printf("  %s  %-18s %s\n", label, t.Name(), t.Description())
		}
		return nil
	},
}
