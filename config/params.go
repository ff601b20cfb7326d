package config

import (
	"errors"
	"fmt"
)

// MaxHoursOfSleep bounds the nightly clearance term. More than a day of
// sleep per tic would drive hormones negative before regulation.
const MaxHoursOfSleep = 24

// Params is the validated, run-scoped parameter set consumed by the muscle
// model. It is passed by value, so a grid never observes later edits.
type Params struct {
	// Model constants
	GridWidth    int
	GridHeight   int
	AnabolicMin  float64
	AnabolicMax  float64
	CatabolicMin float64
	CatabolicMax float64
	DiffuseRate  float64
	MaxNeighbors int
	MaxTic       int

	// Subject knobs
	Intensity                 int
	HoursOfSleep              float64
	DaysBetweenWorkouts       int
	SlowTwitchFiberPercentage int
	LiftEnabled               bool
	Extended                  bool
	NutritionQuality          float64
	NutritionResponse         float64
}

// Params builds the run parameters from the loaded config and validates them.
func (c *Config) Params() (Params, error) {
	p := Params{
		GridWidth:    c.Model.GridWidth,
		GridHeight:   c.Model.GridHeight,
		AnabolicMin:  c.Model.AnabolicMin,
		AnabolicMax:  c.Model.AnabolicMax,
		CatabolicMin: c.Model.CatabolicMin,
		CatabolicMax: c.Model.CatabolicMax,
		DiffuseRate:  c.Model.DiffuseRate,
		MaxNeighbors: c.Model.MaxNeighbors,
		MaxTic:       c.Derived.MaxTic,

		Intensity:                 c.Subject.Intensity,
		HoursOfSleep:              c.Subject.HoursOfSleep,
		DaysBetweenWorkouts:       c.Subject.DaysBetweenWorkouts,
		SlowTwitchFiberPercentage: c.Subject.SlowTwitchFiberPercentage,
		LiftEnabled:               c.Subject.Lift,
		Extended:                  c.Derived.Extended,
		NutritionQuality:          c.Subject.NutritionQuality,
		NutritionResponse:         c.Subject.NutritionResponse,
	}
	if c.Run.Variant != VariantOriginal && c.Run.Variant != VariantExtended {
		return Params{}, fmt.Errorf("invalid params: run.variant %q must be %q or %q",
			c.Run.Variant, VariantOriginal, VariantExtended)
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// DefaultParams returns the validated parameters of the embedded defaults.
func DefaultParams() Params {
	p, err := MustLoad("").Params()
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return p
}

// Validate reports every out-of-range field at once. Values are never
// clamped: a silently corrected knob would hide a mistake in an experiment.
func (p Params) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(p.GridWidth > 0, "grid width %d must be positive", p.GridWidth)
	check(p.GridHeight > 0, "grid height %d must be positive", p.GridHeight)
	check(p.AnabolicMin > 0, "anabolic minimum %v must be positive", p.AnabolicMin)
	check(p.AnabolicMax >= p.AnabolicMin, "anabolic maximum %v below minimum %v", p.AnabolicMax, p.AnabolicMin)
	check(p.CatabolicMin > 0, "catabolic minimum %v must be positive", p.CatabolicMin)
	check(p.CatabolicMax >= p.CatabolicMin, "catabolic maximum %v below minimum %v", p.CatabolicMax, p.CatabolicMin)
	check(p.DiffuseRate >= 0 && p.DiffuseRate <= 1, "diffuse rate %v must be in [0,1]", p.DiffuseRate)
	check(p.MaxNeighbors >= 8, "max neighbors %d must be at least 8", p.MaxNeighbors)
	check(p.MaxTic > 0, "max tic %d must be positive", p.MaxTic)

	check(p.Intensity >= 0 && p.Intensity <= 100, "intensity %d must be in [0,100]", p.Intensity)
	check(p.HoursOfSleep >= 0 && p.HoursOfSleep <= MaxHoursOfSleep,
		"hours of sleep %v must be in [0,%d]", p.HoursOfSleep, MaxHoursOfSleep)
	check(p.DaysBetweenWorkouts > 0, "days between workouts %d must be positive", p.DaysBetweenWorkouts)
	check(p.SlowTwitchFiberPercentage >= 0 && p.SlowTwitchFiberPercentage <= 100,
		"slow twitch fiber percentage %d must be in [0,100]", p.SlowTwitchFiberPercentage)
	check(p.NutritionQuality >= 0, "nutrition quality %v must be non-negative", p.NutritionQuality)
	check(p.NutritionResponse >= 0 && p.NutritionResponse <= 1,
		"nutrition response %v must be in [0,1]", p.NutritionResponse)

	if len(errs) > 0 {
		return fmt.Errorf("invalid params: %w", errors.Join(errs...))
	}
	return nil
}

// TrainingDue reports whether the grid-wide training gate is open on tic.
func (p Params) TrainingDue(tic int) bool {
	return p.LiftEnabled && tic%p.DaysBetweenWorkouts == 0
}

// CellCount returns the number of patches on the grid.
func (p Params) CellCount() int {
	return p.GridWidth * p.GridHeight
}
