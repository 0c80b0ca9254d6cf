package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/site-assistant/internal/model"
	"github.com/rcliao/site-assistant/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a memory record",
		Long:  "Replace the text, category or metadata of a record. Unset flags are left unchanged; --meta replaces the metadata wholesale.",
		Args:  cobra.ExactArgs(1),
		Run:   runUpdate,
	}

	cmd.Flags().String("text", "", "New text")
	cmd.Flags().StringP("category", "C", "", "New category")
	cmd.Flags().String("meta", "", "New JSON metadata")

	RootCmd.AddCommand(cmd)
}

func runUpdate(cmd *cobra.Command, args []string) {
	var p store.UpdateParams
	if cmd.Flags().Changed("text") {
		text, _ := cmd.Flags().GetString("text")
		p.Text = &text
	}
	if cmd.Flags().Changed("category") {
		c, _ := cmd.Flags().GetString("category")
		category := model.Category(c)
		p.Category = &category
	}
	if cmd.Flags().Changed("meta") {
		raw, _ := cmd.Flags().GetString("meta")
		meta, err := parseMeta("meta", raw)
		if err != nil {
			exitErr("update", err)
		}
		if meta == nil {
			meta = map[string]any{}
		}
		p.Metadata = meta
	}
	if p.Text == nil && p.Category == nil && p.Metadata == nil {
		exitErr("update", fmt.Errorf("nothing to update (use --text, --category or --meta)"))
	}

	s, err := openStore(cmd)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	rec, err := s.Update(cmd.Context(), args[0], p)
	if err != nil {
		exitErr("update", err)
	}
	printJSON(cmd, rec)
}
