// ABOUTME: Converts raw export entries into typed records and workouts.
// ABOUTME: Every dropped entry becomes a Skipped result carrying a countable reason.
package extract

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/healthdb/internal/exportxml"
	"github.com/harperreed/healthdb/internal/models"
)

// DefaultSource names records whose export entry carries no sourceName.
const DefaultSource = "Unknown"

// Kind classifies an extraction result.
type Kind int

const (
	KindNotApplicable Kind = iota
	KindRecord
	KindWorkout
	KindSkipped
)

func (k Kind) String() string {
	switch k {
	case KindRecord:
		return "record"
	case KindWorkout:
		return "workout"
	case KindSkipped:
		return "skipped"
	default:
		return "not_applicable"
	}
}

// SkipReason explains why an entry produced no record.
type SkipReason string

const (
	MissingValue     SkipReason = "missing_value"
	BadValue         SkipReason = "bad_value"
	MissingStartDate SkipReason = "missing_start_date"
	BadDate          SkipReason = "bad_date"
	BadDuration      SkipReason = "bad_duration"
	MissingType      SkipReason = "missing_type"
)

// Result is the outcome of extracting one entry.
type Result struct {
	Kind    Kind
	Record  *models.Record
	Workout *models.Workout
	Reason  SkipReason
	Detail  string
}

func skipped(reason SkipReason, format string, args ...any) Result {
	return Result{Kind: KindSkipped, Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// Extract converts one entry. It never fails; problems are reported as a
// Skipped result.
func Extract(e exportxml.Entry) Result {
	switch e.Tag {
	case exportxml.TagRecord:
		return extractRecord(e)
	case exportxml.TagWorkout:
		return extractWorkout(e)
	default:
		return Result{Kind: KindNotApplicable}
	}
}

// Child tags consumed by value and date extraction.
const (
	childValue     = "Value"
	childStartDate = "StartDate"
	childEndDate   = "EndDate"
)

func extractRecord(e exportxml.Entry) Result {
	recordType := strings.TrimSpace(e.Attrs["type"])
	if recordType == "" {
		return skipped(MissingType, "record at offset %d has no type", e.Offset)
	}

	var raw string
	if c, ok := e.Child(childValue); ok {
		raw = c.Text
	} else {
		raw = e.Attrs["value"]
	}
	if strings.TrimSpace(raw) == "" {
		return skipped(MissingValue, "%s has no value", recordType)
	}
	value, err := parseFinite(raw)
	if err != nil {
		return skipped(BadValue, "%s value %q: %v", recordType, raw, err)
	}

	start, end, reason, detail := entryDates(e)
	if reason != "" {
		return skipped(reason, "%s %s", recordType, detail)
	}

	r := models.NewRecord(recordType, sourceName(e), value, start)
	if unit := e.Attrs["unit"]; unit != "" {
		r.WithUnit(unit)
	}
	if end != nil {
		r.WithEndDate(*end)
	}
	copyMetadata(r.Metadata, e)

	return Result{Kind: KindRecord, Record: r}
}

func extractWorkout(e exportxml.Entry) Result {
	activity := strings.TrimSpace(e.Attrs["workoutActivityType"])

	duration := 0.0
	if raw, ok := e.Attrs["duration"]; ok && strings.TrimSpace(raw) != "" {
		d, err := parseFinite(raw)
		if err != nil {
			return skipped(BadDuration, "workout duration %q: %v", raw, err)
		}
		duration = d
	}

	start, end, reason, detail := entryDates(e)
	if reason != "" {
		return skipped(reason, "workout %s", detail)
	}

	w := models.NewWorkout(activity, sourceName(e), duration, start)
	if unit := e.Attrs["durationUnit"]; unit != "" {
		w.DurationUnit = unit
	}
	if end != nil {
		w.WithEndDate(*end)
	}
	if d, err := parseFinite(e.Attrs["totalDistance"]); err == nil {
		w.WithDistance(d, e.Attrs["totalDistanceUnit"])
	}
	if en, err := parseFinite(e.Attrs["totalEnergyBurned"]); err == nil {
		w.WithEnergy(en, e.Attrs["totalEnergyBurnedUnit"])
	}
	copyMetadata(w.Metadata, e)

	return Result{Kind: KindWorkout, Workout: w}
}

// entryDates prefers StartDate/EndDate children and falls back to attributes.
func entryDates(e exportxml.Entry) (time.Time, *time.Time, SkipReason, string) {
	var startRaw, endRaw string
	if c, ok := e.Child(childStartDate); ok {
		startRaw = c.Text
		if ec, ok := e.Child(childEndDate); ok {
			endRaw = ec.Text
		}
	} else {
		startRaw = e.Attrs["startDate"]
		endRaw = e.Attrs["endDate"]
	}

	if strings.TrimSpace(startRaw) == "" {
		return time.Time{}, nil, MissingStartDate, "has no start date"
	}
	start, err := ParseDate(startRaw)
	if err != nil {
		return time.Time{}, nil, BadDate, err.Error()
	}
	if strings.TrimSpace(endRaw) == "" {
		return start, nil, "", ""
	}
	end, err := ParseDate(endRaw)
	if err != nil {
		return time.Time{}, nil, BadDate, err.Error()
	}
	return start, &end, "", ""
}

func sourceName(e exportxml.Entry) string {
	if s := strings.TrimSpace(e.Attrs["sourceName"]); s != "" {
		return s
	}
	return DefaultSource
}

// copyMetadata copies unconsumed children and the sourceVersion/device
// attributes into md.
func copyMetadata(md models.Metadata, e exportxml.Entry) {
	for _, c := range e.Children {
		switch c.Tag {
		case childValue, childStartDate, childEndDate:
			continue
		}
		md[c.Tag] = c.Text
		if key, ok := c.Attrs["key"]; ok && key != "" {
			md[key] = c.Attrs["value"]
		}
	}
	for _, attr := range []string{"sourceVersion", "device"} {
		if v := e.Attrs[attr]; v != "" {
			md[attr] = v
		}
	}
}

func parseFinite(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number")
	}
	return v, nil
}
