// Package cli implements the site-assistant CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/site-assistant/internal/app"
	"github.com/rcliao/site-assistant/internal/config"
	"github.com/rcliao/site-assistant/internal/embedding"
	"github.com/rcliao/site-assistant/internal/logging"
	"github.com/rcliao/site-assistant/internal/model"
	"github.com/rcliao/site-assistant/internal/store"
)

var (
	configPath string
	dbPath     string
	formatFlag string
	logLevel   string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "site-assistant",
	Short: "Construction management assistant",
	Long: "A construction management assistant backed by a categorized SQLite memory store. " +
		"Ask free-text questions, call the financial, project and document operations directly, " +
		"or serve them over MCP.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (default: $SITE_ASSISTANT_CONFIG)")
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $SITE_ASSISTANT_DB or ~/.site-assistant/memory.db)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) logging.Logger {
	return logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cmd.ErrOrStderr()})
}

func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return app.New(cmd.Context(), cfg, app.WithLogger(newLogger(cmd, cfg)))
}

// openStore opens the memory store alone, for commands that do not need
// the handlers or the vector index.
func openStore(cmd *cobra.Command) (*store.SQLiteStore, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		return nil, err
	}
	return store.NewSQLiteStore(cfg.DBPath,
		store.WithEmbedder(embedder),
		store.WithTaxonomy(model.DefaultTaxonomy()),
		store.WithLogger(newLogger(cmd, cfg)))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

func printJSON(cmd *cobra.Command, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
}

// printRecords writes records as JSON, or one block per record with
// --format text.
func printRecords(cmd *cobra.Command, recs []model.Record) {
	if formatFlag != "text" {
		if recs == nil {
			recs = []model.Record{}
		}
		printJSON(cmd, recs)
		return
	}
	w := cmd.OutOrStdout()
	for i, r := range recs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		cat := string(r.Category)
		if cat == "" {
			cat = "none"
		}
		fmt.Fprintf(w, "[%s] %s (%s)\n", cat, r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintln(w, r.Text)
	}
}

// readInput returns the positional args joined, or stdin when it is piped.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
			return "", nil
		}
	}
	b, err := io.ReadAll(in)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// parseMeta decodes a --meta/--filter JSON object. Empty means none.
func parseMeta(flag, raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("--%s must be a JSON object: %w", flag, err)
	}
	return m, nil
}
