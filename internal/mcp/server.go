// ABOUTME: MCP server exposing read-only queries over the health store.
// ABOUTME: Wraps the MCP server with a storage Querier and the aggregation service.
package mcp

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/healthdb/internal/analytics"
	"github.com/harperreed/healthdb/internal/storage"
)

// Version is reported to MCP clients.
const Version = "1.0.0"

// Server wraps the MCP server with storage access.
type Server struct {
	mcpServer *mcp.Server
	repo      storage.Querier
	svc       *analytics.Service
	log       *slog.Logger
}

// NewServer creates a new MCP server over the given store.
func NewServer(repo storage.Querier, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "healthdb",
			Version: Version,
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		repo:      repo,
		svc:       analytics.New(repo),
		log:       log,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	s.log.Info("mcp server starting", "transport", "stdio")
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
