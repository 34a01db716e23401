// ABOUTME: Declarative rule set for record and workout validation.
// ABOUTME: Holds the default JSON Schema documents and JSON/YAML persistence.
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"gopkg.in/yaml.v3"
)

// RuleSetVersion is written into every exported rule set.
const RuleSetVersion = "1"

// datePattern matches the stored timestamp layout.
const datePattern = `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`

// RuleSet is the persisted validation document.
type RuleSet struct {
	Version     string             `json:"version"`
	Description string             `json:"description,omitempty"`
	Record      *jsonschema.Schema `json:"record"`
	Workout     *jsonschema.Schema `json:"workout"`
}

// Format selects the serialization of an exported rule set.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks a format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

func ptr[T any](v T) *T { return &v }

func stringOrNull(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Types: []string{"string", "null"}, Description: desc}
}

func numberOrNull(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Types: []string{"number", "null"}, Description: desc}
}

func timestamp(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Pattern: datePattern, Description: desc}
}

// DefaultRuleSet returns the built-in rules.
func DefaultRuleSet() *RuleSet {
	return &RuleSet{
		Version:     RuleSetVersion,
		Description: "Health record validation rules. end_date, when present, must not precede start_date.",
		Record: &jsonschema.Schema{
			Title:       "record",
			Type:        "object",
			Description: "A single health observation.",
			Required:    []string{"record_type", "source", "value", "start_date"},
			Properties: map[string]*jsonschema.Schema{
				"record_type": {Type: "string", MinLength: ptr(1), Description: "Record type identifier"},
				"source":      {Type: "string", MinLength: ptr(1), Description: "Originating device or app"},
				"unit":        stringOrNull("Unit of measure"),
				"value":       {Type: "number", Description: "Measured value"},
				"start_date":  timestamp("Observation start"),
				"end_date": {
					Types:       []string{"string", "null"},
					Pattern:     datePattern,
					Description: "Observation end",
				},
				"metadata": {Type: "object", Description: "Auxiliary fields"},
			},
		},
		Workout: &jsonschema.Schema{
			Title:       "workout",
			Type:        "object",
			Description: "An exercise session.",
			Required:    []string{"workout_type", "source", "duration", "start_date", "end_date"},
			Properties: map[string]*jsonschema.Schema{
				"workout_type":             {Type: "string", MinLength: ptr(1), Description: "Activity type"},
				"source":                   {Type: "string", MinLength: ptr(1), Description: "Originating device or app"},
				"duration":                 {Type: "number", Minimum: ptr(0.0), Description: "Session duration"},
				"duration_unit":            stringOrNull("Duration unit"),
				"start_date":               timestamp("Session start"),
				"end_date":                 timestamp("Session end"),
				"total_distance":           numberOrNull("Distance covered"),
				"total_distance_unit":      stringOrNull("Distance unit"),
				"total_energy_burned":      numberOrNull("Energy burned"),
				"total_energy_burned_unit": stringOrNull("Energy unit"),
				"metadata":                 {Type: "object", Description: "Auxiliary fields"},
			},
		},
	}
}

// Export writes the rule set in the given format.
func (rs *RuleSet) Export(w io.Writer, format Format) error {
	data, err := json.MarshalIndent(rs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal rule set: %w", err)
	}

	if format == FormatYAML {
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("convert rule set: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode rule set yaml: %w", err)
		}
		return enc.Close()
	}

	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write rule set: %w", err)
	}
	return nil
}

// Save writes the rule set to path, choosing the format by extension.
func (rs *RuleSet) Save(path string) error {
	var buf bytes.Buffer
	if err := rs.Export(&buf, FormatFromPath(path)); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("create rule set directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("write rule set: %w", err)
	}
	return nil
}

// LoadRuleSet reads a JSON or YAML rule set document.
func LoadRuleSet(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule set: %w", err)
	}

	if FormatFromPath(path) == FormatYAML {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse rule set yaml: %w", err)
		}
		if data, err = json.Marshal(doc); err != nil {
			return nil, fmt.Errorf("convert rule set: %w", err)
		}
	}

	var rs RuleSet
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parse rule set: %w", err)
	}
	if rs.Record == nil || rs.Workout == nil {
		return nil, fmt.Errorf("rule set %s: record and workout schemas are required", path)
	}
	return &rs, nil
}
