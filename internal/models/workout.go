// ABOUTME: Workout model, a Record specialization with duration, distance, energy.
// ABOUTME: A workout is always persisted through its backing generic Record.
package models

import (
	"strconv"
	"time"
)

// DefaultWorkoutType and DefaultDurationUnit fill in missing export attributes.
const (
	DefaultWorkoutType  = "UnknownWorkout"
	DefaultDurationUnit = "min"
)

// Workout represents an exercise session.
type Workout struct {
	ID                    int64
	WorkoutType           string
	Source                string
	Duration              float64
	DurationUnit          string
	StartDate             time.Time
	EndDate               *time.Time
	TotalDistance         *float64
	TotalDistanceUnit     *string
	TotalEnergyBurned     *float64
	TotalEnergyBurnedUnit *string
	Metadata              Metadata
}

// NewWorkout creates a Workout with default duration unit.
func NewWorkout(workoutType, source string, duration float64, start time.Time) *Workout {
	if workoutType == "" {
		workoutType = DefaultWorkoutType
	}
	return &Workout{
		WorkoutType:  workoutType,
		Source:       source,
		Duration:     duration,
		DurationUnit: DefaultDurationUnit,
		StartDate:    start,
		Metadata:     Metadata{},
	}
}

// WithEndDate sets the end timestamp.
func (w *Workout) WithEndDate(t time.Time) *Workout {
	w.EndDate = &t
	return w
}

// WithDistance sets the total distance and its unit.
func (w *Workout) WithDistance(distance float64, unit string) *Workout {
	w.TotalDistance = &distance
	if unit != "" {
		w.TotalDistanceUnit = &unit
	}
	return w
}

// WithEnergy sets the total energy burned and its unit.
func (w *Workout) WithEnergy(energy float64, unit string) *Workout {
	w.TotalEnergyBurned = &energy
	if unit != "" {
		w.TotalEnergyBurnedUnit = &unit
	}
	return w
}

// RecordType returns the type name of the backing record.
func (w *Workout) RecordType() string {
	return WorkoutTypePrefix + w.WorkoutType
}

// Record builds the generic record that backs this workout.
// The duration becomes the value and the duration unit becomes the unit.
func (w *Workout) Record() *Record {
	unit := w.DurationUnit
	if unit == "" {
		unit = DefaultDurationUnit
	}
	md := Metadata{}
	for k, v := range w.Metadata {
		md[k] = v
	}
	md["workout_type"] = w.WorkoutType
	md["duration"] = strconv.FormatFloat(w.Duration, 'f', -1, 64)
	md["duration_unit"] = unit
	if w.TotalDistance != nil {
		md["total_distance"] = strconv.FormatFloat(*w.TotalDistance, 'f', -1, 64)
	}
	if w.TotalDistanceUnit != nil {
		md["total_distance_unit"] = *w.TotalDistanceUnit
	}
	if w.TotalEnergyBurned != nil {
		md["total_energy_burned"] = strconv.FormatFloat(*w.TotalEnergyBurned, 'f', -1, 64)
	}
	if w.TotalEnergyBurnedUnit != nil {
		md["total_energy_burned_unit"] = *w.TotalEnergyBurnedUnit
	}

	return &Record{
		ID:         w.ID,
		RecordType: w.RecordType(),
		Source:     w.Source,
		Unit:       &unit,
		Value:      w.Duration,
		StartDate:  w.StartDate,
		EndDate:    w.EndDate,
		Metadata:   md,
	}
}
