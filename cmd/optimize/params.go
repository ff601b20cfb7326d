package main

import (
	"math"

	"github.com/pthm-cable/hypertrophy/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Column name in the evaluation log
	Path    string  // Config path
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Integer bool    // Rounded before it is applied
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the training knobs searched by the optimizer.
// Slow-twitch percentage is a property of the subject, not of the training
// plan, so it stays fixed at the base config value.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "intensity", Path: "subject.intensity", Min: 0, Max: 100, Integer: true},
			{Name: "hours_of_sleep", Path: "subject.hours_of_sleep", Min: 4, Max: 12},
			{Name: "days_between_workouts", Path: "subject.days_between_workouts", Min: 1, Max: 14, Integer: true},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp bounds every value and rounds integer parameters, giving the values
// a run actually uses.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := math.Max(spec.Min, math.Min(spec.Max, v[i]))
		if spec.Integer {
			val = math.Round(val)
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	cfg.Subject.Intensity = int(clamped[0])
	cfg.Subject.HoursOfSleep = clamped[1]
	cfg.Subject.DaysBetweenWorkouts = int(clamped[2])
}

// ExtractFromConfig extracts current parameter values from a Config struct,
// clamped into the search bounds.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return pv.Clamp([]float64{
		float64(cfg.Subject.Intensity),
		cfg.Subject.HoursOfSleep,
		float64(cfg.Subject.DaysBetweenWorkouts),
	})
}
