// ABOUTME: CLI command for starting the MCP server.
// ABOUTME: Runs a stdio MCP server exposing read-only health queries.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harperreed/healthdb/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server.

The server communicates via stdin/stdout and only reads from the database;
use 'healthdb ingest' to load data.

CLIENT CONFIGURATION:

  {
    "mcpServers": {
      "healthdb": {
        "command": "healthdb",
        "args": ["mcp"]
      }
    }
  }

AVAILABLE TOOLS:

  get_stats           Totals and overall date range
  list_record_types   Record types with category and counts
  list_sources        Sources with device and first/last seen
  aggregate           Daily, weekly, or monthly mean/min/max/count
  workouts_by_type    Recent workouts of an activity type
  records_by_type     Recent records of a type

AVAILABLE RESOURCES:

  healthdb://stats      Store statistics
  healthdb://types      Record type directory
  healthdb://sources    Source directory`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := mcp.NewServer(store, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
