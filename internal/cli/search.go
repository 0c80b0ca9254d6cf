package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/site-assistant/internal/model"
	"github.com/rcliao/site-assistant/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search memory records",
		Long: "Search memory records by relevance. Without a query, returns every record " +
			"that passes the category and metadata filters.",
		Run: runSearch,
	}

	cmd.Flags().StringP("category", "C", "", "Filter by category")
	cmd.Flags().String("filter", "", "JSON object of metadata values to match exactly")
	cmd.Flags().IntP("limit", "l", 10, "Max results")
	cmd.Flags().Bool("sort-time", false, "Newest first instead of most relevant first")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")
	filterStr, _ := cmd.Flags().GetString("filter")
	limit, _ := cmd.Flags().GetInt("limit")
	sortTime, _ := cmd.Flags().GetBool("sort-time")

	filter, err := parseMeta("filter", filterStr)
	if err != nil {
		exitErr("search", err)
	}

	s, err := openStore(cmd)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	results, err := s.Search(cmd.Context(), store.SearchParams{
		Query:      strings.Join(args, " "),
		Category:   model.Category(category),
		Filter:     filter,
		Limit:      limit,
		SortByTime: sortTime,
	})
	if err != nil {
		exitErr("search", err)
	}

	printRecords(cmd, results)
}
