// ABOUTME: MCP tool implementations for health queries.
// ABOUTME: Stats, type and source directories, aggregates, workouts, and records.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/healthdb/internal/analytics"
	"github.com/harperreed/healthdb/internal/extract"
	"github.com/harperreed/healthdb/internal/models"
	"github.com/harperreed/healthdb/internal/storage"
)

const defaultToolLimit = 20

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_stats",
		Description: "Get total records, workouts, sources, record types, and the overall date range",
	}, s.handleGetStats)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_record_types",
		Description: "List every record type with its category, count, and date range",
	}, s.handleListRecordTypes)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_sources",
		Description: "List every data source with its device, record count, and first/last seen",
	}, s.handleListSources)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "aggregate",
		Description: "Mean, min, max, and count of a record type per day, week, or month over an inclusive date range",
	}, s.handleAggregate)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "workouts_by_type",
		Description: "List the most recent workouts of a type",
	}, s.handleWorkoutsByType)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "records_by_type",
		Description: "List the most recent records of a type",
	}, s.handleRecordsByType)
}

// Tool input/output types

type emptyInput struct{}

type statsOutput struct {
	Stats analytics.StatsEntry `json:"stats"`
}

type recordTypesOutput struct {
	RecordTypes []analytics.TypeEntry `json:"record_types"`
}

type sourcesOutput struct {
	Sources []analytics.SourceEntry `json:"sources"`
}

type aggregateInput struct {
	RecordType  string `json:"record_type" jsonschema:"Record type name, for example HKQuantityTypeIdentifierHeartRate"`
	Granularity string `json:"granularity,omitempty" jsonschema:"day, week, or month (default day)"`
	From        string `json:"from" jsonschema:"First day of the range (YYYY-MM-DD)"`
	To          string `json:"to" jsonschema:"Last day of the range, inclusive (YYYY-MM-DD)"`
}

type aggregateOutput struct {
	RecordType  string            `json:"record_type"`
	Granularity string            `json:"granularity"`
	Buckets     []analytics.Point `json:"buckets"`
}

type workoutsByTypeInput struct {
	WorkoutType string `json:"workout_type" jsonschema:"Workout activity type, for example HKWorkoutActivityTypeRunning"`
	Limit       int    `json:"limit,omitempty" jsonschema:"Max results (default 20)"`
}

type workoutOutput struct {
	ID                    int64    `json:"id"`
	WorkoutType           string   `json:"workout_type"`
	Source                string   `json:"source"`
	Duration              float64  `json:"duration"`
	DurationUnit          string   `json:"duration_unit"`
	StartDate             string   `json:"start_date"`
	EndDate               string   `json:"end_date,omitempty"`
	TotalDistance         *float64 `json:"total_distance,omitempty"`
	TotalDistanceUnit     string   `json:"total_distance_unit,omitempty"`
	TotalEnergyBurned     *float64 `json:"total_energy_burned,omitempty"`
	TotalEnergyBurnedUnit string   `json:"total_energy_burned_unit,omitempty"`
}

type workoutsOutput struct {
	Workouts []workoutOutput `json:"workouts"`
}

type recordsByTypeInput struct {
	RecordType string `json:"record_type" jsonschema:"Record type name"`
	Limit      int    `json:"limit,omitempty" jsonschema:"Max results (default 20)"`
}

type recordOutput struct {
	ID         int64             `json:"id"`
	RecordType string            `json:"record_type"`
	Source     string            `json:"source"`
	Unit       string            `json:"unit,omitempty"`
	Value      float64           `json:"value"`
	StartDate  string            `json:"start_date"`
	EndDate    string            `json:"end_date,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type recordsOutput struct {
	Records []recordOutput `json:"records"`
}

// Tool handlers

func (s *Server) handleGetStats(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, statsOutput, error) {
	stats, err := s.svc.Stats(ctx)
	if err != nil {
		return nil, statsOutput{}, fmt.Errorf("failed to get stats: %w", err)
	}
	return nil, statsOutput{Stats: analytics.NewStatsEntry(stats)}, nil
}

func (s *Server) handleListRecordTypes(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, recordTypesOutput, error) {
	types, err := s.svc.RecordTypes(ctx)
	if err != nil {
		return nil, recordTypesOutput{}, fmt.Errorf("failed to list record types: %w", err)
	}

	out := recordTypesOutput{RecordTypes: make([]analytics.TypeEntry, 0, len(types))}
	for _, t := range types {
		out.RecordTypes = append(out.RecordTypes, analytics.NewTypeEntry(t))
	}
	return nil, out, nil
}

func (s *Server) handleListSources(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, sourcesOutput, error) {
	sources, err := s.svc.Sources(ctx)
	if err != nil {
		return nil, sourcesOutput{}, fmt.Errorf("failed to list sources: %w", err)
	}

	out := sourcesOutput{Sources: make([]analytics.SourceEntry, 0, len(sources))}
	for _, src := range sources {
		out.Sources = append(out.Sources, analytics.NewSourceEntry(src))
	}
	return nil, out, nil
}

func (s *Server) handleAggregate(ctx context.Context, req *mcp.CallToolRequest, input aggregateInput) (*mcp.CallToolResult, aggregateOutput, error) {
	if input.RecordType == "" {
		return nil, aggregateOutput{}, fmt.Errorf("record_type is required")
	}
	g, err := storage.ParseGranularity(input.Granularity)
	if err != nil {
		return nil, aggregateOutput{}, err
	}
	from, err := extract.ParseDate(input.From)
	if err != nil {
		return nil, aggregateOutput{}, fmt.Errorf("invalid from date: %w", err)
	}
	to, err := extract.ParseDate(input.To)
	if err != nil {
		return nil, aggregateOutput{}, fmt.Errorf("invalid to date: %w", err)
	}

	buckets, err := s.svc.Aggregate(ctx, input.RecordType, from, to, g)
	if err != nil {
		return nil, aggregateOutput{}, fmt.Errorf("failed to aggregate: %w", err)
	}

	out := aggregateOutput{
		RecordType:  input.RecordType,
		Granularity: string(g),
		Buckets:     make([]analytics.Point, 0, len(buckets)),
	}
	for _, b := range buckets {
		out.Buckets = append(out.Buckets, analytics.NewPoint(b))
	}
	return nil, out, nil
}

func (s *Server) handleWorkoutsByType(ctx context.Context, req *mcp.CallToolRequest, input workoutsByTypeInput) (*mcp.CallToolResult, workoutsOutput, error) {
	if input.WorkoutType == "" {
		return nil, workoutsOutput{}, fmt.Errorf("workout_type is required")
	}
	if input.Limit <= 0 {
		input.Limit = defaultToolLimit
	}

	rows, err := s.svc.WorkoutsByType(ctx, input.WorkoutType, input.Limit)
	if err != nil {
		return nil, workoutsOutput{}, fmt.Errorf("failed to list workouts: %w", err)
	}

	out := workoutsOutput{Workouts: make([]workoutOutput, 0, len(rows))}
	for _, w := range rows {
		out.Workouts = append(out.Workouts, workoutOutput{
			ID:                    w.ID,
			WorkoutType:           w.WorkoutType,
			Source:                w.Source,
			Duration:              w.Duration,
			DurationUnit:          w.DurationUnit,
			StartDate:             models.FormatTime(w.StartDate),
			EndDate:               optTime(w.EndDate),
			TotalDistance:         w.TotalDistance,
			TotalDistanceUnit:     deref(w.TotalDistanceUnit),
			TotalEnergyBurned:     w.TotalEnergyBurned,
			TotalEnergyBurnedUnit: deref(w.TotalEnergyBurnedUnit),
		})
	}
	return nil, out, nil
}

func (s *Server) handleRecordsByType(ctx context.Context, req *mcp.CallToolRequest, input recordsByTypeInput) (*mcp.CallToolResult, recordsOutput, error) {
	if input.RecordType == "" {
		return nil, recordsOutput{}, fmt.Errorf("record_type is required")
	}
	if input.Limit <= 0 {
		input.Limit = defaultToolLimit
	}

	records, err := s.repo.RecordsByType(ctx, input.RecordType, input.Limit)
	if err != nil {
		return nil, recordsOutput{}, fmt.Errorf("failed to list records: %w", err)
	}

	out := recordsOutput{Records: make([]recordOutput, 0, len(records))}
	for _, r := range records {
		out.Records = append(out.Records, recordOutput{
			ID:         r.ID,
			RecordType: r.RecordType,
			Source:     r.Source,
			Unit:       deref(r.Unit),
			Value:      r.Value,
			StartDate:  models.FormatTime(r.StartDate),
			EndDate:    optTime(r.EndDate),
			Metadata:   r.Metadata,
		})
	}
	return nil, out, nil
}
