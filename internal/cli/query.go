package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "query [text]",
		Short: "Ask the assistant a question",
		Long: "Send a free-text request to the orchestrator. Text can be a positional arg or piped via stdin. " +
			`Without ANTHROPIC_API_KEY, pass {"tool": "<name>", "args": {...}} to call an operation directly.`,
		Run: runQuery,
	}

	RootCmd.AddCommand(cmd)
}

func runQuery(cmd *cobra.Command, args []string) {
	input, err := readInput(cmd, args)
	if err != nil {
		exitErr("read stdin", err)
	}

	a, err := openApp(cmd)
	if err != nil {
		exitErr("start", err)
	}
	defer a.Close()

	fmt.Fprintln(cmd.OutOrStdout(), a.HandleQuery(cmd.Context(), strings.TrimSpace(input)))
}
