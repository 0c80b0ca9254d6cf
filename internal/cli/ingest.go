package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/site-assistant/internal/document"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ingest <path>",
		Short: "Convert and index a document",
		Long:  "Convert a document to text, split it into chunks, index them and record the document in memory.",
		Args:  cobra.ExactArgs(1),
		Run:   runIngest,
	}

	cmd.Flags().String("meta", "", "JSON metadata merged into every chunk, e.g. {\"project_id\": \"riverside\"}")

	RootCmd.AddCommand(cmd)
}

func runIngest(cmd *cobra.Command, args []string) {
	metaStr, _ := cmd.Flags().GetString("meta")
	meta, err := parseMeta("meta", metaStr)
	if err != nil {
		exitErr("ingest", err)
	}

	a, err := openApp(cmd)
	if err != nil {
		exitErr("start", err)
	}
	defer a.Close()

	res, err := a.Documents.Process(cmd.Context(), document.ProcessRequest{FilePath: args[0], Metadata: meta})
	if err != nil {
		exitErr("ingest", err)
	}
	printJSON(cmd, res)
}
