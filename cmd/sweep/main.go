// Command sweep runs the simulation over a cartesian grid of subject
// parameters and seeds, writing one CSV row per run plus a per-combination
// summary.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/hypertrophy/config"
	"github.com/pthm-cable/hypertrophy/logging"
	"github.com/pthm-cable/hypertrophy/telemetry"
)

// Output file names inside --output.
const (
	resultsFile = "sweep.csv"
	summaryFile = "sweep_summary.csv"
	baseFile    = "base_config.yaml"
)

type options struct {
	configPath string
	outputDir  string
	variant    string
	maxTic     int
	seeds      int
	jobs       int
	logLevel   string

	intensity  []int
	sleep      []float64
	days       []int
	slowTwitch []int
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
		Use:   "sweep",
		Short: "Run a parameter sweep over training and lifestyle knobs",
		Example: `  sweep --output out/sweep --intensity 50,75,95 --hours-of-sleep 6,8 \
    --days-between-workouts 2,5 --seeds 5`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup(opts.logLevel, os.Stdout)
			return run(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "Base config YAML file (empty = use defaults)")
	f.StringVar(&opts.outputDir, "output", "", "Output directory for results")
	f.StringVar(&opts.variant, "variant", "", "Model variant override: original or extended")
	f.IntVar(&opts.maxTic, "max-tic", 0, "Tics per run (0 = variant default)")
	f.IntVar(&opts.seeds, "seeds", 3, "Seeds per combination")
	f.IntVar(&opts.jobs, "jobs", runtime.NumCPU(), "Concurrent runs")
	f.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	f.IntSliceVar(&opts.intensity, "intensity", nil, "Intensity values (default: config value)")
	f.Float64SliceVar(&opts.sleep, "hours-of-sleep", nil, "Hours-of-sleep values (default: config value)")
	f.IntSliceVar(&opts.days, "days-between-workouts", nil, "Workout cadence values (default: config value)")
	f.IntSliceVar(&opts.slowTwitch, "slow-twitch", nil, "Slow-twitch percentage values (default: config value)")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func run(ctx context.Context, opts options) error {
	if opts.seeds < 1 {
		return fmt.Errorf("--seeds must be at least 1")
	}

	base, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.variant != "" {
		base.Run.Variant = opts.variant
	}
	if opts.maxTic > 0 {
		base.Run.MaxTic = opts.maxTic
	}
	base.ComputeDerived()

	// Unset axes sweep a single value from the base config
	if len(opts.intensity) == 0 {
		opts.intensity = []int{base.Subject.Intensity}
	}
	if len(opts.sleep) == 0 {
		opts.sleep = []float64{base.Subject.HoursOfSleep}
	}
	if len(opts.days) == 0 {
		opts.days = []int{base.Subject.DaysBetweenWorkouts}
	}
	if len(opts.slowTwitch) == 0 {
		opts.slowTwitch = []int{base.Subject.SlowTwitchFiberPercentage}
	}

	combos := Expand(opts.intensity, opts.sleep, opts.days, opts.slowTwitch)
	if err := Validate(base, combos); err != nil {
		return err
	}

	seeds := make([]int64, opts.seeds)
	for i := range seeds {
		seeds[i] = base.Run.Seed + int64(i) + 1
	}

	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := base.WriteYAML(filepath.Join(opts.outputDir, baseFile)); err != nil {
		return err
	}

	slog.Info("starting sweep",
		"combinations", len(combos),
		"seeds", len(seeds),
		"runs", len(combos)*len(seeds),
		"jobs", opts.jobs,
		"variant", base.Run.Variant,
		"max_tic", base.Derived.MaxTic,
	)
	start := time.Now()

	results, err := Run(ctx, base, combos, seeds, opts.jobs)
	if err != nil {
		return err
	}

	if err := writeCSV(filepath.Join(opts.outputDir, resultsFile), results); err != nil {
		return err
	}
	summary := Summarize(combos, results)
	if err := writeCSV(filepath.Join(opts.outputDir, summaryFile), summary); err != nil {
		return err
	}

	best := summary[0]
	for _, a := range summary[1:] {
		if a.MeanFinalMass > best.MeanFinalMass {
			best = a
		}
	}
	slog.Info("sweep complete",
		"runs", len(results),
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
		"best_intensity", best.Intensity,
		"best_hours_of_sleep", best.HoursOfSleep,
		"best_days_between_workouts", best.DaysBetweenWorkouts,
		"best_slow_twitch", best.SlowTwitch,
		"best_mean_final_mass", best.MeanFinalMass,
	)
	return nil
}

func writeCSV(path string, records any) error {
	l, err := telemetry.CreateCSVLog(path)
	if err != nil {
		return err
	}
	if err := l.Write(records); err != nil {
		l.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return l.Close()
}
