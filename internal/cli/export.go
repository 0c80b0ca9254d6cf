package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/site-assistant/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export memory records as JSON",
		Long:  "Export memory records, oldest first, in the format import expects. Filter by category with -C.",
		Run:   runExport,
	}

	cmd.Flags().StringP("category", "C", "", "Filter by category")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")

	s, err := openStore(cmd)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	recs, err := s.ExportAll(cmd.Context(), model.Category(category))
	if err != nil {
		exitErr("export", err)
	}
	if recs == nil {
		recs = []model.Record{}
	}
	printJSON(cmd, recs)
}
