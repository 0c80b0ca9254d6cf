package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	s, err := openStore(cmd)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	stats, err := s.Stats(cmd.Context())
	if err != nil {
		exitErr("stats", err)
	}

	if formatFlag != "text" {
		printJSON(cmd, stats)
		return
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s (%d bytes)\n", stats.DBPath, stats.DBSizeBytes)
	fmt.Fprintf(w, "records: %d (embedded %d, uncategorized %d)\n", stats.TotalRecords, stats.Embedded, stats.Uncategorized)
	for _, c := range stats.Categories {
		flag := ""
		if !c.Known {
			flag = " (unregistered)"
		}
		fmt.Fprintf(w, "  %-14s %d%s\n", c.Category, c.Count, flag)
	}
}
