package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/site-assistant/internal/model"
	"github.com/rcliao/site-assistant/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List memory records, newest first",
		Run:   runList,
	}

	cmd.Flags().StringP("category", "C", "", "Filter by category")
	cmd.Flags().IntP("limit", "l", 20, "Max results")
	cmd.Flags().Bool("ids-only", false, "Only output record ids")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")
	limit, _ := cmd.Flags().GetInt("limit")
	idsOnly, _ := cmd.Flags().GetBool("ids-only")

	s, err := openStore(cmd)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	var recs []model.Record
	if category != "" {
		recs, err = s.GetByCategory(cmd.Context(), model.Category(category), limit)
	} else {
		recs, err = s.Search(cmd.Context(), store.SearchParams{Limit: limit, SortByTime: true})
	}
	if err != nil {
		exitErr("list", err)
	}

	if idsOnly {
		for _, r := range recs {
			fmt.Fprintln(cmd.OutOrStdout(), r.ID)
		}
		return
	}
	printRecords(cmd, recs)
}
