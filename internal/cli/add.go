package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/site-assistant/internal/model"
	"github.com/rcliao/site-assistant/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Store a memory record",
		Long:  "Store a memory record. Text can be a positional arg or piped via stdin.",
		Run:   runAdd,
	}

	cmd.Flags().StringP("category", "C", "", "Category (projects, clients, tasks, documents, conversations, compliance, resources, financial)")
	cmd.Flags().String("meta", "", "JSON metadata")

	RootCmd.AddCommand(cmd)
}

func runAdd(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")
	metaStr, _ := cmd.Flags().GetString("meta")

	text, err := readInput(cmd, args)
	if err != nil {
		exitErr("read stdin", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		exitErr("add", fmt.Errorf("text is required (positional arg or stdin)"))
	}
	meta, err := parseMeta("meta", metaStr)
	if err != nil {
		exitErr("add", err)
	}

	s, err := openStore(cmd)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	id, err := s.Add(cmd.Context(), store.AddParams{
		Text:     text,
		Category: model.Category(category),
		Metadata: meta,
	})
	if err != nil {
		exitErr("add", err)
	}

	rec, err := s.Get(cmd.Context(), id)
	if err != nil {
		exitErr("get", err)
	}
	printJSON(cmd, rec)
}
