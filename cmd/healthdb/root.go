// ABOUTME: Root Cobra command for the healthdb CLI.
// ABOUTME: Loads config, builds the logger, and manages the store lifecycle.
package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/harperreed/healthdb/internal/config"
	"github.com/harperreed/healthdb/internal/logging"
	"github.com/harperreed/healthdb/internal/storage"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// skipStore marks commands that run without opening the database.
const skipStore = "skip-store"

var (
	dbPath     string
	configPath string

	cfg    *config.Config
	logger *slog.Logger
	store  *storage.DB
)

var rootCmd = &cobra.Command{
	Use:   "healthdb",
	Short: "Health export ingestion and query tool",
	Long: `healthdb ingests a decompressed health data export into a local SQLite
database and answers questions about it.

QUICK START:

  $ healthdb ingest ~/Downloads/apple_health_export   # Load the export
  $ healthdb stats                                     # What's in there?
  $ healthdb types                                     # Record types by category
  $ healthdb daily HKQuantityTypeIdentifierHeartRate --from 2024-01-01 --to 2024-01-31

Re-running ingest on the same export is safe: records are deduplicated on
(type, source, start, end) and the first copy seen is kept.

CONFIGURATION:

  Settings are read from $XDG_CONFIG_HOME/healthdb/config.json (or --config,
  JSON or YAML) and HEALTHDB_* environment variables:

    data_dir, db_path, batch_size, exclude_types, exclude_sources,
    rules_path, log.level, log.format

MCP INTEGRATION:

  Run 'healthdb mcp' to serve read-only query tools over stdio:

  {
    "mcpServers": {
      "healthdb": { "command": "healthdb", "args": ["mcp"] }
    }
  }

DATA STORAGE:

  The database lives at ~/.local/share/healthdb/health.db unless --db,
  db_path, or data_dir say otherwise.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.DBPath = dbPath
		}
		logger = logging.New(cfg.Log)

		if cmd.Name() == "help" || cmd.Annotations[skipStore] == "true" {
			return nil
		}

		// A failed RunE skips PersistentPostRunE, so an earlier store may still be open.
		if store != nil {
			_ = store.Close()
		}
		store, err = cfg.OpenStorage()
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		logger.Debug("database opened", "path", store.Path())
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if store == nil {
			return nil
		}
		err := store.Close()
		store = nil
		return err
	},
}

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print the version",
	Annotations: map[string]string{skipStore: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "healthdb %s\n", version)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: data_dir/health.db)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/healthdb/config.json)")
	rootCmd.AddCommand(versionCmd)
}
