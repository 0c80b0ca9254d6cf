package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/site-assistant/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Retrieve a memory record",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	s, err := openStore(cmd)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	rec, err := s.Get(cmd.Context(), args[0])
	if err != nil {
		exitErr("get", err)
	}

	if formatFlag == "text" {
		printRecords(cmd, []model.Record{*rec})
		return
	}
	printJSON(cmd, rec)
}
