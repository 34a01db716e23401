// ABOUTME: MCP resource implementations for the health store.
// ABOUTME: Provides healthdb://stats, healthdb://types, and healthdb://sources.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/healthdb/internal/models"
)

// Resource URIs.
const (
	StatsURI   = "healthdb://stats"
	TypesURI   = "healthdb://types"
	SourcesURI = "healthdb://sources"
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         StatsURI,
		Name:        "Store Statistics",
		Description: "Record, workout, source, and type totals with the overall date range",
		MIMEType:    "application/json",
	}, s.handleStatsResource)

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         TypesURI,
		Name:        "Record Types",
		Description: "Every record type with category, count, and date range",
		MIMEType:    "application/json",
	}, s.handleTypesResource)

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         SourcesURI,
		Name:        "Data Sources",
		Description: "Every source with device, record count, and first/last seen",
		MIMEType:    "application/json",
	}, s.handleSourcesResource)
}

// Resource handlers

func (s *Server) handleStatsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	_, out, err := s.handleGetStats(ctx, nil, emptyInput{})
	if err != nil {
		return nil, err
	}
	return jsonResource(StatsURI, out.Stats)
}

func (s *Server) handleTypesResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	_, out, err := s.handleListRecordTypes(ctx, nil, emptyInput{})
	if err != nil {
		return nil, err
	}
	return jsonResource(TypesURI, out)
}

func (s *Server) handleSourcesResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	_, out, err := s.handleListSources(ctx, nil, emptyInput{})
	if err != nil {
		return nil, err
	}
	return jsonResource(SourcesURI, out)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

func optTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return models.FormatTime(*t)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
