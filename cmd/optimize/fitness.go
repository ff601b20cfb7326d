package main

import (
	"context"
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/hypertrophy/config"
	"github.com/pthm-cable/hypertrophy/sim"
	"github.com/pthm-cable/hypertrophy/telemetry"
)

// failedFitness is returned for parameter sets whose runs abort. It is
// finite so simplex methods can still rank the vertex.
const failedFitness = 1e9

// Evaluation is one row of optimize_log.csv.
type Evaluation struct {
	Eval                int     `csv:"eval"`
	Fitness             float64 `csv:"fitness"`
	MeanFinalMass       float64 `csv:"mean_final_mass"`
	StdFinalMass        float64 `csv:"std_final_mass"`
	MeanGain            float64 `csv:"mean_gain"`
	Intensity           float64 `csv:"intensity"`
	HoursOfSleep        float64 `csv:"hours_of_sleep"`
	DaysBetweenWorkouts float64 `csv:"days_between_workouts"`
}

// FitnessEvaluator runs simulations for a parameter vector across seeds and
// scores them.
type FitnessEvaluator struct {
	ctx        context.Context
	params     *ParamVector
	seeds      []int64
	baseConfig *config.Config

	mu          sync.Mutex
	bestFitness float64
	bestSummary telemetry.RunSummary
	last        Evaluation
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(ctx context.Context, params *ParamVector, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		ctx:         ctx,
		params:      params,
		seeds:       seeds,
		baseConfig:  baseCfg,
		bestFitness: math.Inf(1),
	}
}

// Last returns the details of the most recent evaluation.
func (fe *FitnessEvaluator) Last() Evaluation {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.last
}

// BestSummary returns the best single-seed summary of the best evaluation.
func (fe *FitnessEvaluator) BestSummary() telemetry.RunSummary {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestSummary
}

// Evaluate computes fitness for raw parameter values (lower = better).
// Fitness is the negated mean final muscle mass over all seeds.
func (fe *FitnessEvaluator) Evaluate(raw []float64) float64 {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, raw)
	cfg.ComputeDerived()

	summaries := make([]telemetry.RunSummary, len(fe.seeds))
	g, ctx := errgroup.WithContext(fe.ctx)
	for i, seed := range fe.seeds {
		i, seed := i, seed
		g.Go(func() error {
			s, err := sim.New(cfg, sim.Options{Seed: seed})
			if err != nil {
				return err
			}
			summaries[i], err = s.Run(ctx)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			return nil
		})
	}

	clamped := fe.params.Clamp(raw)
	ev := Evaluation{
		Intensity:           clamped[0],
		HoursOfSleep:        clamped[1],
		DaysBetweenWorkouts: clamped[2],
	}

	if err := g.Wait(); err != nil {
		ev.Fitness = failedFitness
		fe.record(ev, nil)
		return ev.Fitness
	}

	masses := make([]float64, len(summaries))
	gains := make([]float64, len(summaries))
	for i, s := range summaries {
		masses[i] = s.FinalMass
		gains[i] = s.MassGain()
	}
	ev.MeanFinalMass, ev.StdFinalMass = stat.PopMeanStdDev(masses, nil)
	ev.MeanGain = stat.Mean(gains, nil)
	ev.Fitness = -ev.MeanFinalMass

	fe.record(ev, summaries)
	return ev.Fitness
}

func (fe *FitnessEvaluator) record(ev Evaluation, summaries []telemetry.RunSummary) {
	fe.mu.Lock()
	defer fe.mu.Unlock()

	fe.last = ev
	if ev.Fitness >= fe.bestFitness || len(summaries) == 0 {
		return
	}
	fe.bestFitness = ev.Fitness
	fe.bestSummary = summaries[0]
	for _, s := range summaries[1:] {
		if s.FinalMass > fe.bestSummary.FinalMass {
			fe.bestSummary = s
		}
	}
}
