// ABOUTME: Record model for observations imported from a health export.
// ABOUTME: Defines Record, Metadata, NaturalKey and the shared timestamp layout.
package models

import (
	"math"
	"strings"
	"time"
)

// TimeLayout is the canonical stored form of every timestamp.
// Timestamps are wall-clock values; any source offset has already been stripped.
const TimeLayout = "2006-01-02 15:04:05"

// WorkoutTypePrefix marks the record_type of a workout's backing record.
const WorkoutTypePrefix = "Workout:"

// Metadata holds auxiliary fields copied from the export.
type Metadata map[string]string

// Record represents one observation or the generic view of a workout.
type Record struct {
	ID         int64
	RecordType string
	Source     string
	Unit       *string
	Value      float64
	StartDate  time.Time
	EndDate    *time.Time
	Metadata   Metadata
}

// NewRecord creates a Record with the required fields set.
func NewRecord(recordType, source string, value float64, start time.Time) *Record {
	return &Record{
		RecordType: recordType,
		Source:     source,
		Value:      value,
		StartDate:  start,
		Metadata:   Metadata{},
	}
}

// WithUnit sets the unit of measure.
func (r *Record) WithUnit(unit string) *Record {
	r.Unit = &unit
	return r
}

// WithEndDate sets the end timestamp.
func (r *Record) WithEndDate(t time.Time) *Record {
	r.EndDate = &t
	return r
}

// WithMetadata sets a single metadata field.
func (r *Record) WithMetadata(key, value string) *Record {
	if r.Metadata == nil {
		r.Metadata = Metadata{}
	}
	r.Metadata[key] = value
	return r
}

// IsWorkout reports whether the record is the backing row of a workout.
func (r *Record) IsWorkout() bool {
	return strings.HasPrefix(r.RecordType, WorkoutTypePrefix)
}

// HasFiniteValue reports whether Value is neither NaN nor infinite.
func (r *Record) HasFiniteValue() bool {
	return !math.IsNaN(r.Value) && !math.IsInf(r.Value, 0)
}

// Key returns the record's natural key.
func (r *Record) Key() NaturalKey {
	k := NaturalKey{
		RecordType: r.RecordType,
		Source:     r.Source,
		StartDate:  FormatTime(r.StartDate),
	}
	if r.EndDate != nil {
		k.EndDate = FormatTime(*r.EndDate)
	}
	return k
}

// NaturalKey identifies a unique record. A missing end date is the empty string.
type NaturalKey struct {
	RecordType string
	Source     string
	StartDate  string
	EndDate    string
}

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseStoredTime parses a timestamp written by FormatTime.
func ParseStoredTime(s string) (time.Time, error) {
	return time.ParseInLocation(TimeLayout, s, time.UTC)
}

// StartOfDay returns midnight UTC of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
