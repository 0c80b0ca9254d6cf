package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/site-assistant/internal/category"
	"github.com/rcliao/site-assistant/internal/model"
)

func init() {
	catCmd := &cobra.Command{
		Use:   "categories",
		Short: "Memory category management",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the registered categories",
		Run:   runCategoriesList,
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a marker record for every category",
		Run:   runCategoriesInit,
	}

	catCmd.AddCommand(listCmd, initCmd)
	RootCmd.AddCommand(catCmd)
}

func runCategoriesList(cmd *cobra.Command, args []string) {
	taxonomy := model.DefaultTaxonomy()
	if formatFlag != "text" {
		printJSON(cmd, taxonomy)
		return
	}
	for _, info := range taxonomy {
		fmt.Fprintf(cmd.OutOrStdout(), "%-14s %s\n", info.Name, info.Description)
	}
}

func runCategoriesInit(cmd *cobra.Command, args []string) {
	s, err := openStore(cmd)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	results, err := category.NewManager(s, model.DefaultTaxonomy(), nil).Initialize(cmd.Context())
	if err != nil {
		exitErr("init categories", err)
	}
	printJSON(cmd, results)
}
