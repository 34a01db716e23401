// ABOUTME: Validates records and workouts against the rule set.
// ABOUTME: Returns a Verdict with a classified rejection reason instead of an error.
package validate

import (
	"fmt"
	"io"
	"math"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/harperreed/healthdb/internal/models"
)

// Reason classifies a rejection.
type Reason string

const (
	MissingField     Reason = "missing_field"
	WrongType        Reason = "wrong_type"
	NegativeDuration Reason = "negative_duration"
	DateOrder        Reason = "date_order"
	SchemaViolation  Reason = "schema"
)

// Verdict is the result of validating one field set.
type Verdict struct {
	OK     bool
	Reason Reason
	Detail string
}

func accept() Verdict {
	return Verdict{OK: true}
}

func reject(reason Reason, format string, args ...any) Verdict {
	return Verdict{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// Validator checks field sets against resolved schemas.
type Validator struct {
	rules   *RuleSet
	record  *jsonschema.Resolved
	workout *jsonschema.Resolved
}

type options struct {
	ruleSetPath string
}

// Option configures a Validator.
type Option func(*options)

// WithRuleSetFile loads the rule set from a JSON or YAML file instead of the
// built-in rules.
func WithRuleSetFile(path string) Option {
	return func(o *options) {
		o.ruleSetPath = path
	}
}

// New creates a Validator.
func New(opts ...Option) (*Validator, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	rules := DefaultRuleSet()
	if o.ruleSetPath != "" {
		loaded, err := LoadRuleSet(o.ruleSetPath)
		if err != nil {
			return nil, err
		}
		rules = loaded
	}

	record, err := rules.Record.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve record schema: %w", err)
	}
	workout, err := rules.Workout.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve workout schema: %w", err)
	}

	return &Validator{rules: rules, record: record, workout: workout}, nil
}

// RuleSet returns the active rule set.
func (v *Validator) RuleSet() *RuleSet {
	return v.rules
}

// Export writes the active rule set.
func (v *Validator) Export(w io.Writer, format Format) error {
	return v.rules.Export(w, format)
}

// Save persists the active rule set to path.
func (v *Validator) Save(path string) error {
	return v.rules.Save(path)
}

// ValidateRecord validates a record.
func (v *Validator) ValidateRecord(r *models.Record) Verdict {
	return v.ValidateRecordFields(RecordFields(r))
}

// ValidateWorkout validates a workout.
func (v *Validator) ValidateWorkout(w *models.Workout) Verdict {
	return v.ValidateWorkoutFields(WorkoutFields(w))
}

// ValidateRecordFields validates a plain record field set.
func (v *Validator) ValidateRecordFields(fields map[string]any) Verdict {
	return check(v.record, v.rules.Record, fields, "")
}

// ValidateWorkoutFields validates a plain workout field set.
func (v *Validator) ValidateWorkoutFields(fields map[string]any) Verdict {
	return check(v.workout, v.rules.Workout, fields, "duration")
}

func check(resolved *jsonschema.Resolved, schema *jsonschema.Schema, fields map[string]any, nonNegative string) Verdict {
	for name, val := range fields {
		if f, ok := val.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			return reject(WrongType, "%s is not a finite number", name)
		}
	}

	if err := resolved.Validate(fields); err != nil {
		return classify(schema, fields, nonNegative, err)
	}

	return checkDateOrder(fields)
}

// classify maps a schema failure to the most specific reason the field set
// explains.
func classify(schema *jsonschema.Schema, fields map[string]any, nonNegative string, err error) Verdict {
	for _, name := range schema.Required {
		val, ok := fields[name]
		if !ok || val == nil {
			return reject(MissingField, "%s is required", name)
		}
		if s, isString := val.(string); isString && s == "" {
			return reject(MissingField, "%s is empty", name)
		}
	}

	if nonNegative != "" {
		if f, ok := fields[nonNegative].(float64); ok && f < 0 {
			return reject(NegativeDuration, "%s %v is negative", nonNegative, f)
		}
	}

	for name, prop := range schema.Properties {
		val, ok := fields[name]
		if !ok {
			continue
		}
		if !typeMatches(prop, val) {
			return reject(WrongType, "%s has type %T", name, val)
		}
	}

	return reject(SchemaViolation, "%v", err)
}

func typeMatches(prop *jsonschema.Schema, val any) bool {
	types := append([]string(nil), prop.Types...)
	if prop.Type != "" {
		types = append(types, prop.Type)
	}
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		switch t {
		case "null":
			if val == nil {
				return true
			}
		case "string":
			if _, ok := val.(string); ok {
				return true
			}
		case "number":
			switch val.(type) {
			case float64, float32, int, int64:
				return true
			}
		case "integer":
			switch val.(type) {
			case int, int64:
				return true
			}
		case "boolean":
			if _, ok := val.(bool); ok {
				return true
			}
		case "object":
			if _, ok := val.(map[string]any); ok {
				return true
			}
		case "array":
			if _, ok := val.([]any); ok {
				return true
			}
		}
	}
	return false
}

func checkDateOrder(fields map[string]any) Verdict {
	startRaw, ok := fields["start_date"].(string)
	if !ok {
		return accept()
	}
	endRaw, ok := fields["end_date"].(string)
	if !ok {
		return accept()
	}

	start, err := models.ParseStoredTime(startRaw)
	if err != nil {
		return reject(SchemaViolation, "start_date: %v", err)
	}
	end, err := models.ParseStoredTime(endRaw)
	if err != nil {
		return reject(SchemaViolation, "end_date: %v", err)
	}
	if end.Before(start) {
		return reject(DateOrder, "end_date %s precedes start_date %s", endRaw, startRaw)
	}
	return accept()
}
