// ABOUTME: Converts models into the plain field sets the rule set is written against.
// ABOUTME: Timestamps use the stored layout; optional values become nil.
package validate

import "github.com/harperreed/healthdb/internal/models"

// RecordFields returns the field set for a record.
func RecordFields(r *models.Record) map[string]any {
	return map[string]any{
		"record_type": r.RecordType,
		"source":      r.Source,
		"unit":        optString(r.Unit),
		"value":       r.Value,
		"start_date":  models.FormatTime(r.StartDate),
		"end_date":    optTime(r),
		"metadata":    metadataFields(r.Metadata),
	}
}

// WorkoutFields returns the field set for a workout.
func WorkoutFields(w *models.Workout) map[string]any {
	fields := map[string]any{
		"workout_type":             w.WorkoutType,
		"source":                   w.Source,
		"duration":                 w.Duration,
		"duration_unit":            w.DurationUnit,
		"start_date":               models.FormatTime(w.StartDate),
		"end_date":                 nil,
		"total_distance":           optFloat(w.TotalDistance),
		"total_distance_unit":      optString(w.TotalDistanceUnit),
		"total_energy_burned":      optFloat(w.TotalEnergyBurned),
		"total_energy_burned_unit": optString(w.TotalEnergyBurnedUnit),
		"metadata":                 metadataFields(w.Metadata),
	}
	if w.EndDate != nil {
		fields["end_date"] = models.FormatTime(*w.EndDate)
	}
	return fields
}

func optString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func optFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func optTime(r *models.Record) any {
	if r.EndDate == nil {
		return nil
	}
	return models.FormatTime(*r.EndDate)
}

func metadataFields(md models.Metadata) map[string]any {
	out := make(map[string]any, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}
