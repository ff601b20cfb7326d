package main

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/hypertrophy/config"
	"github.com/pthm-cable/hypertrophy/sim"
)

// Combination is one point of the parameter grid.
type Combination struct {
	Intensity           int
	HoursOfSleep        float64
	DaysBetweenWorkouts int
	SlowTwitch          int
}

// apply writes the combination into a copy of base.
func (c Combination) apply(base *config.Config) *config.Config {
	cfg := base.Clone()
	cfg.Subject.Intensity = c.Intensity
	cfg.Subject.HoursOfSleep = c.HoursOfSleep
	cfg.Subject.DaysBetweenWorkouts = c.DaysBetweenWorkouts
	cfg.Subject.SlowTwitchFiberPercentage = c.SlowTwitch
	cfg.ComputeDerived()
	return cfg
}

// Result is one row of sweep.csv: a single seeded run.
type Result struct {
	Run                 int     `csv:"run"`
	Combination         int     `csv:"combination"`
	Seed                int64   `csv:"seed"`
	Variant             string  `csv:"variant"`
	Intensity           int     `csv:"intensity"`
	HoursOfSleep        float64 `csv:"hours_of_sleep"`
	DaysBetweenWorkouts int     `csv:"days_between_workouts"`
	SlowTwitch          int     `csv:"slow_twitch"`
	InitialMass         float64 `csv:"initial_mass"`
	FinalMass           float64 `csv:"final_mass"`
	PeakMass            float64 `csv:"peak_mass"`
	PeakTic             int     `csv:"peak_tic"`
	MassGain            float64 `csv:"mass_gain"`
	FinalAnabolic       float64 `csv:"final_anabolic"`
	FinalCatabolic      float64 `csv:"final_catabolic"`
	TrainingSessions    int     `csv:"training_sessions"`
	Pulses              int     `csv:"pulses"`
	Bookmarks           int     `csv:"bookmarks"`
}

// Aggregate is one row of sweep_summary.csv: all seeds of one combination.
type Aggregate struct {
	Combination         int     `csv:"combination"`
	Intensity           int     `csv:"intensity"`
	HoursOfSleep        float64 `csv:"hours_of_sleep"`
	DaysBetweenWorkouts int     `csv:"days_between_workouts"`
	SlowTwitch          int     `csv:"slow_twitch"`
	Runs                int     `csv:"runs"`
	MeanFinalMass       float64 `csv:"mean_final_mass"`
	StdFinalMass        float64 `csv:"std_final_mass"`
	MeanGain            float64 `csv:"mean_gain"`
}

// Expand returns the cartesian product of the value lists, intensity
// varying slowest.
func Expand(intensity []int, sleep []float64, days []int, slowTwitch []int) []Combination {
	combos := make([]Combination, 0, len(intensity)*len(sleep)*len(days)*len(slowTwitch))
	for _, in := range intensity {
		for _, sl := range sleep {
			for _, d := range days {
				for _, st := range slowTwitch {
					combos = append(combos, Combination{
						Intensity:           in,
						HoursOfSleep:        sl,
						DaysBetweenWorkouts: d,
						SlowTwitch:          st,
					})
				}
			}
		}
	}
	return combos
}

// Validate checks every combination against base before any run starts.
func Validate(base *config.Config, combos []Combination) error {
	for i, c := range combos {
		if _, err := c.apply(base).Params(); err != nil {
			return fmt.Errorf("combination %d %+v: %w", i, c, err)
		}
	}
	return nil
}

// Run executes every combination for every seed with at most jobs runs in
// flight. Results are ordered by combination, then seed.
func Run(ctx context.Context, base *config.Config, combos []Combination, seeds []int64, jobs int) ([]Result, error) {
	results := make([]Result, len(combos)*len(seeds))

	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}

	for ci, combo := range combos {
		ci, combo := ci, combo
		cfg := combo.apply(base)
		for si, seed := range seeds {
			seed := seed
			idx := ci*len(seeds) + si
			g.Go(func() error {
				s, err := sim.New(cfg, sim.Options{Seed: seed})
				if err != nil {
					return err
				}
				summary, err := s.Run(ctx)
				if err != nil {
					return fmt.Errorf("combination %d seed %d: %w", ci, seed, err)
				}
				results[idx] = Result{
					Run:                 idx,
					Combination:         ci,
					Seed:                seed,
					Variant:             summary.Variant,
					Intensity:           combo.Intensity,
					HoursOfSleep:        combo.HoursOfSleep,
					DaysBetweenWorkouts: combo.DaysBetweenWorkouts,
					SlowTwitch:          combo.SlowTwitch,
					InitialMass:         summary.InitialMass,
					FinalMass:           summary.FinalMass,
					PeakMass:            summary.PeakMass,
					PeakTic:             summary.PeakTic,
					MassGain:            summary.MassGain(),
					FinalAnabolic:       summary.FinalAnabolic,
					FinalCatabolic:      summary.FinalCatabolic,
					TrainingSessions:    summary.TrainingSessions,
					Pulses:              summary.Pulses,
					Bookmarks:           summary.Bookmarks,
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Summarize groups results by combination. results must be ordered as Run
// returns them.
func Summarize(combos []Combination, results []Result) []Aggregate {
	if len(combos) == 0 {
		return nil
	}
	perCombo := len(results) / len(combos)
	out := make([]Aggregate, len(combos))
	masses := make([]float64, perCombo)
	gains := make([]float64, perCombo)

	for ci, c := range combos {
		for j := 0; j < perCombo; j++ {
			r := results[ci*perCombo+j]
			masses[j] = r.FinalMass
			gains[j] = r.MassGain
		}
		agg := Aggregate{
			Combination:         ci,
			Intensity:           c.Intensity,
			HoursOfSleep:        c.HoursOfSleep,
			DaysBetweenWorkouts: c.DaysBetweenWorkouts,
			SlowTwitch:          c.SlowTwitch,
			Runs:                perCombo,
		}
		if perCombo > 0 {
			agg.MeanFinalMass, agg.StdFinalMass = stat.PopMeanStdDev(masses, nil)
			agg.MeanGain = stat.Mean(gains, nil)
		}
		out[ci] = agg
	}
	return out
}
