package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/site-assistant/internal/mcpserver"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the assistant over MCP on stdin/stdout",
		Run:   runServe,
	}

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	a, err := openApp(cmd)
	if err != nil {
		exitErr("start", err)
	}
	defer a.Close()

	a.Logger.Info("mcp server starting", "db", a.Store.Path(), "tools", len(a.Tools.Names())+1)
	if err := mcpserver.Serve(mcpserver.New(a, a.Tools, a.Logger)); err != nil {
		exitErr("serve", err)
	}
}
