package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "tool [name] [json-args]",
		Short: "Call a handler operation directly",
		Long:  "Call a financial, project or document operation with JSON arguments. Without a name, lists the operations.",
		Args:  cobra.MaximumNArgs(2),
		Run:   runTool,
	}

	RootCmd.AddCommand(cmd)
}

func runTool(cmd *cobra.Command, args []string) {
	a, err := openApp(cmd)
	if err != nil {
		exitErr("start", err)
	}
	defer a.Close()

	if len(args) == 0 {
		fmt.Fprint(cmd.OutOrStdout(), a.Tools.Describe())
		return
	}

	raw := "{}"
	if len(args) == 2 && strings.TrimSpace(args[1]) != "" {
		raw = args[1]
	}
	if !json.Valid([]byte(raw)) {
		exitErr("tool", fmt.Errorf("arguments must be valid JSON"))
	}

	res := a.Tools.Call(cmd.Context(), args[0], json.RawMessage(raw))
	fmt.Fprintln(cmd.OutOrStdout(), res.JSON())
	if !res.Success {
		a.Close()
		os.Exit(1)
	}
}
