// Command optimize searches training parameters (intensity, sleep, workout
// cadence) that maximize the mean final muscle mass across seeds.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/hypertrophy/config"
	"github.com/pthm-cable/hypertrophy/logging"
	"github.com/pthm-cable/hypertrophy/telemetry"
)

// Output file names inside --output.
const (
	logFile        = "optimize_log.csv"
	bestConfigFile = "best_config.yaml"
	bestRunFile    = "best_run.yaml"
)

// formatDuration formats a duration as HhMMmSSs or MmSSs for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

// evalSeeds returns n deterministic evaluation seeds.
func evalSeeds(n int) []int64 {
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = int64(i*1000 + 42)
	}
	return seeds
}

type options struct {
	configPath string
	outputDir  string
	method     string
	seeds      int
	maxEvals   int
	population int
	maxTic     int
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:          "optimize",
		Short:        "Search training parameters that maximize final muscle mass",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup(opts.logLevel, os.Stdout)
			return run(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "Base config YAML file (empty = use defaults)")
	f.StringVar(&opts.outputDir, "output", "", "Output directory for results")
	f.StringVar(&opts.method, "method", "nelder-mead", "Search method: nelder-mead or cmaes")
	f.IntVar(&opts.seeds, "seeds", 3, "Number of seeds per evaluation")
	f.IntVar(&opts.maxEvals, "max-evals", 100, "Maximum number of evaluations")
	f.IntVar(&opts.population, "population", 0, "CMA-ES population size (0 = auto)")
	f.IntVar(&opts.maxTic, "max-tic", 0, "Tics per run (0 = variant default)")
	f.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func newMethod(name string, dim, population int) (optimize.Method, error) {
	switch name {
	case "nelder-mead":
		return &optimize.NelderMead{SimplexSize: 0.2}, nil
	case "cmaes":
		if population == 0 {
			population = 4 + int(3.0*float64(dim)/2.0)
		}
		return &optimize.CmaEsChol{InitStepSize: 0.3, Population: population}, nil
	default:
		return nil, fmt.Errorf("unknown method %q", name)
	}
}

func run(ctx context.Context, opts options) error {
	if opts.seeds < 1 {
		return fmt.Errorf("--seeds must be at least 1")
	}
	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	baseCfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.maxTic > 0 {
		baseCfg.Run.MaxTic = opts.maxTic
		baseCfg.ComputeDerived()
	}
	if _, err := baseCfg.Params(); err != nil {
		return err
	}

	params := NewParamVector()
	method, err := newMethod(opts.method, params.Dim(), opts.population)
	if err != nil {
		return err
	}

	evaluator := NewFitnessEvaluator(ctx, params, evalSeeds(opts.seeds), baseCfg)

	evalLog, err := telemetry.CreateCSVLog(filepath.Join(opts.outputDir, logFile))
	if err != nil {
		return err
	}
	defer evalLog.Close()

	evalCount := 0
	bestFitness := failedFitness
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Denormalize(x)
			fitness := evaluator.Evaluate(raw)
			evalCount++

			ev := evaluator.Last()
			ev.Eval = evalCount
			if err := evalLog.Write([]Evaluation{ev}); err != nil {
				slog.Error("failed to write evaluation", "error", err)
			}

			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = params.Clamp(raw)
			}

			elapsed := time.Since(startTime)
			remaining := time.Duration(opts.maxEvals-evalCount) * (elapsed / time.Duration(evalCount))
			slog.Info("evaluation",
				"eval", evalCount,
				"max_evals", opts.maxEvals,
				"mean_final_mass", ev.MeanFinalMass,
				"intensity", ev.Intensity,
				"hours_of_sleep", ev.HoursOfSleep,
				"days_between_workouts", ev.DaysBetweenWorkouts,
				"best", -bestFitness,
				"elapsed", formatDuration(elapsed),
				"eta", formatDuration(remaining),
			)
			return fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: opts.maxEvals,
		Concurrent:      0, // seeds already run in parallel inside Evaluate
	}

	slog.Info("starting optimization",
		"method", opts.method,
		"params", params.Dim(),
		"max_evals", opts.maxEvals,
		"seeds", opts.seeds,
		"max_tic", baseCfg.Derived.MaxTic,
	)

	initX := params.Normalize(params.ExtractFromConfig(baseCfg))
	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		slog.Warn("optimization ended", "error", err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	// Best params seen in any evaluation, not only the final iterate
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		return fmt.Errorf("no successful evaluation")
	}

	attrs := []any{"evals", evalCount, "elapsed", formatDuration(time.Since(startTime)), "best_mass", -bestFitness}
	for i, spec := range params.Specs {
		attrs = append(attrs, spec.Name, bestParams[i])
	}
	slog.Info("optimization complete", attrs...)

	bestCfg := baseCfg.Clone()
	params.ApplyToConfig(bestCfg, bestParams)
	if err := bestCfg.WriteYAML(filepath.Join(opts.outputDir, bestConfigFile)); err != nil {
		return fmt.Errorf("writing best config: %w", err)
	}
	if err := evaluator.BestSummary().WriteYAML(filepath.Join(opts.outputDir, bestRunFile)); err != nil {
		return fmt.Errorf("writing best run: %w", err)
	}
	return nil
}
