package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/donna-agent/donna/internal/agent"
	"github.com/donna-agent/donna/internal/provider"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		return runChat(cmd, a)
	},
}

func runChat(cmd *cobra.Command, a *app) error {
	color.Magenta(logo)
	fmt.Println("  Type a request, @agent to pick a specialist, 'help' for commands, 'exit' to quit.")
	fmt.Println()

	for {
		color.New(color.FgMagenta, color.Bold).Print("you> ")
		line, err := a.stdin.ReadLine(cmd.Context())
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Println()
				return nil
			}
			return err
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "exit", "quit":
			return nil
		case "help":
			printChatHelp(a)
			continue
		}

		input, ok := expandClipboardShortcut(input)
		if !ok {
			continue
		}

		result, err := a.pipeline.Handle(cmd.Context(), input)
		if err != nil {
			printRunError(err)
			continue
		}

		fmt.Println()
		color.New(color.FgGreen, color.Bold).Printf("%s> ", result.Profile)
		fmt.Println(result.Answer)
		if result.Revised {
			color.New(color.Faint).Println("  (revised after critic review)")
		}
		fmt.Println()
	}
}

// expandClipboardShortcut handles @fix and @explain: the clipboard
// content becomes part of the request so the user can paste an error
// without retyping it.
func expandClipboardShortcut(input string) (string, bool) {
	var template string
	switch {
	case strings.HasPrefix(input, "@fix"):
		template = "Fix this problem:\n%s\n%s"
	case strings.HasPrefix(input, "@explain"):
		template = "Explain what this means:\n%s\n%s"
	default:
		return input, true
	}

	content, err := clipboard.ReadAll()
	if err != nil || strings.TrimSpace(content) == "" {
		color.Yellow("  clipboard is empty or unreadable; copy the text first")
		return "", false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(input, "@fix"), "@explain"))
	return fmt.Sprintf(template, content, rest), true
}

func printChatHelp(a *app) {
	fmt.Println("  Commands:")
	fmt.Println("    exit | quit       leave the session")
	fmt.Println("    @<agent> <text>   route directly to a specialist:")
	for _, p := range a.profiles.All() {
		fmt.Printf("      @%-10s %s\n", p.Name, p.Description)
	}
	fmt.Println("    @fix              fix whatever is on the clipboard")
	fmt.Println("    @explain          explain whatever is on the clipboard")
	fmt.Println("  Risky actions always ask for confirmation; answer y or yes to approve.")
}

func printRunError(err error) {
	switch {
	case errors.Is(err, agent.ErrCycleBudgetExceeded):
		color.Red("  The agent ran out of reasoning cycles. Try a more specific request.")
	case errors.Is(err, provider.ErrModelUnavailable):
		color.Red("  The model backend is unreachable: %v", err)
	default:
		color.Red("  Error: %v", err)
	}
}
