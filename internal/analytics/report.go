// ABOUTME: Report documents for external chart and page generators.
// ABOUTME: Supports JSON and YAML export of the overview and of aggregate series.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harperreed/healthdb/internal/models"
	"github.com/harperreed/healthdb/internal/storage"
)

// ReportVersion is the document format version.
const ReportVersion = "1.0"

const (
	reportTool = "healthdb"
	dateLayout = "2006-01-02"
)

// Report is the store overview: stats plus the type and source directories.
type Report struct {
	Version     string        `json:"version" yaml:"version"`
	GeneratedAt time.Time     `json:"generated_at" yaml:"generated_at"`
	Tool        string        `json:"tool" yaml:"tool"`
	Stats       StatsEntry    `json:"stats" yaml:"stats"`
	RecordTypes []TypeEntry   `json:"record_types" yaml:"record_types"`
	Sources     []SourceEntry `json:"sources" yaml:"sources"`
}

// StatsEntry mirrors storage.Stats with printable dates.
type StatsEntry struct {
	TotalRecords     int64  `json:"total_records" yaml:"total_records"`
	TotalWorkouts    int64  `json:"total_workouts" yaml:"total_workouts"`
	TotalSources     int64  `json:"total_sources" yaml:"total_sources"`
	TotalRecordTypes int64  `json:"total_record_types" yaml:"total_record_types"`
	FirstRecord      string `json:"first_record,omitempty" yaml:"first_record,omitempty"`
	LastRecord       string `json:"last_record,omitempty" yaml:"last_record,omitempty"`
}

// TypeEntry is one row of the type directory.
type TypeEntry struct {
	TypeName    string `json:"type_name" yaml:"type_name"`
	Category    string `json:"category" yaml:"category"`
	Count       int64  `json:"record_count" yaml:"record_count"`
	FirstRecord string `json:"first_record,omitempty" yaml:"first_record,omitempty"`
	LastRecord  string `json:"last_record,omitempty" yaml:"last_record,omitempty"`
}

// SourceEntry is one row of the source directory.
type SourceEntry struct {
	Name      string `json:"name" yaml:"name"`
	Device    string `json:"device,omitempty" yaml:"device,omitempty"`
	Count     int64  `json:"record_count" yaml:"record_count"`
	FirstSeen string `json:"first_seen" yaml:"first_seen"`
	LastSeen  string `json:"last_seen" yaml:"last_seen"`
}

// SeriesReport is an aggregate series for one record type.
type SeriesReport struct {
	Version     string    `json:"version" yaml:"version"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	Tool        string    `json:"tool" yaml:"tool"`
	RecordType  string    `json:"record_type" yaml:"record_type"`
	Granularity string    `json:"granularity" yaml:"granularity"`
	From        string    `json:"from" yaml:"from"`
	To          string    `json:"to" yaml:"to"`
	Points      []Point   `json:"points" yaml:"points"`
}

// Point is one bucket of a series.
type Point struct {
	Date  string  `json:"date" yaml:"date"`
	Mean  float64 `json:"mean" yaml:"mean"`
	Min   float64 `json:"min" yaml:"min"`
	Max   float64 `json:"max" yaml:"max"`
	Count int64   `json:"count" yaml:"count"`
}

// Overview builds the store overview report.
func (s *Service) Overview(ctx context.Context) (*Report, error) {
	stats, err := s.q.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("overview: %w", err)
	}
	types, err := s.q.RecordTypeSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("overview: %w", err)
	}
	sources, err := s.q.SourceSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("overview: %w", err)
	}

	r := &Report{
		Version:     ReportVersion,
		GeneratedAt: time.Now().UTC(),
		Tool:        reportTool,
		Stats:       NewStatsEntry(stats),
		RecordTypes: make([]TypeEntry, 0, len(types)),
		Sources:     make([]SourceEntry, 0, len(sources)),
	}
	for _, t := range types {
		r.RecordTypes = append(r.RecordTypes, NewTypeEntry(t))
	}
	for _, src := range sources {
		r.Sources = append(r.Sources, NewSourceEntry(src))
	}
	return r, nil
}

// Series builds an aggregate series report.
func (s *Service) Series(ctx context.Context, recordType string, from, to time.Time, g storage.Granularity) (*SeriesReport, error) {
	buckets, err := s.aggregate(ctx, recordType, from, to, g)
	if err != nil {
		return nil, err
	}

	r := &SeriesReport{
		Version:     ReportVersion,
		GeneratedAt: time.Now().UTC(),
		Tool:        reportTool,
		RecordType:  recordType,
		Granularity: string(g),
		From:        from.Format(dateLayout),
		To:          to.Format(dateLayout),
		Points:      make([]Point, 0, len(buckets)),
	}
	for _, b := range buckets {
		r.Points = append(r.Points, NewPoint(b))
	}
	return r, nil
}

// NewStatsEntry converts store stats to their printable form.
func NewStatsEntry(stats *storage.Stats) StatsEntry {
	return StatsEntry{
		TotalRecords:     stats.TotalRecords,
		TotalWorkouts:    stats.TotalWorkouts,
		TotalSources:     stats.TotalSources,
		TotalRecordTypes: stats.TotalRecordTypes,
		FirstRecord:      optTime(stats.FirstRecord),
		LastRecord:       optTime(stats.LastRecord),
	}
}

// NewTypeEntry converts a type directory row.
func NewTypeEntry(t storage.RecordTypeSummary) TypeEntry {
	return TypeEntry{
		TypeName:    t.TypeName,
		Category:    string(t.Category),
		Count:       t.Count,
		FirstRecord: optTime(t.FirstRecord),
		LastRecord:  optTime(t.LastRecord),
	}
}

// NewSourceEntry converts a source directory row.
func NewSourceEntry(src storage.SourceSummary) SourceEntry {
	e := SourceEntry{
		Name:      src.Name,
		Count:     src.Count,
		FirstSeen: models.FormatTime(src.FirstSeen),
		LastSeen:  models.FormatTime(src.LastSeen),
	}
	if src.Device != nil {
		e.Device = *src.Device
	}
	return e
}

// NewPoint converts an aggregate bucket.
func NewPoint(b Bucket) Point {
	return Point{
		Date:  b.Date.Format(dateLayout),
		Mean:  b.Mean,
		Min:   b.Min,
		Max:   b.Max,
		Count: b.Count,
	}
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	return writeJSON(w, r)
}

// WriteYAML writes the report as YAML.
func (r *Report) WriteYAML(w io.Writer) error {
	return writeYAML(w, r)
}

// WriteJSON writes the series as indented JSON.
func (r *SeriesReport) WriteJSON(w io.Writer) error {
	return writeJSON(w, r)
}

// WriteYAML writes the series as YAML.
func (r *SeriesReport) WriteYAML(w io.Writer) error {
	return writeYAML(w, r)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

func optTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return models.FormatTime(*t)
}
