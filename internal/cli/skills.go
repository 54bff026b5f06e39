package cli

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "List skills learned from recorded sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		records, err := a.skills.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No skills yet. Use 'donna record' to teach one.")
			return nil
		}
		for _, s := range records {
			fmt.Printf("%-24s %s  (learned %s)\n", s.Name, s.Description, s.CreatedAt.Local().Format("2006-01-02"))
		}
		return nil
	},
}

var skillsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a skill's script and risk level",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		s, err := a.skills.Get(cmd.Context(), args[0])
		if errors.Is(err, sql.ErrNoRows) {
			fmt.Printf("No skill named %q.\n", args[0])
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Printf("%s  (%s, learned %s)\n", s.Name, s.Risk, s.CreatedAt.Local().Format("2006-01-02"))
		fmt.Println(s.Description)
		fmt.Printf("\n%s\n", s.Script)
		return nil
	},
}

func init() {
	skillsCmd.AddCommand(skillsShowCmd)
}
