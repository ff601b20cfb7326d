package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/hypertrophy/config"
	"github.com/pthm-cable/hypertrophy/logging"
	"github.com/pthm-cable/hypertrophy/muscle"
	"github.com/pthm-cable/hypertrophy/sim"
)

var version = "0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(logOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hypertrophy",
		Short: "Grid simulation of muscle hormones and fiber growth",
		Long: `hypertrophy simulates a 17x17 patch of muscle tissue. Each patch carries
anabolic and catabolic hormone levels and one fiber. Daily activity, weight
training, sleep and hormone diffusion drive fiber growth, and the total
muscle mass is recorded after every simulated day.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cmd, logOut)
		},
	}

	f := rootCmd.Flags()
	f.String("config", "", "Path to config.yaml (empty = use defaults)")
	f.String("output-dir", "", "Output directory for CSV logs, summary and plots")
	f.String("snapshot-dir", "", "Directory for grid snapshots taken on bookmarks")
	f.String("log-level", "info", "Log level: trace, debug, info, warn, error")
	f.Bool("log-stats", false, "Log windowed fiber stats via slog")
	f.Bool("plot", false, "Render muscle_mass.png and hormones.png into the output dir")
	f.Int("stats-window", 0, "Tics per stats window (0 = use config)")
	f.Int64("seed", 0, "RNG seed (0 = config, then time-based)")
	f.String("variant", "", "Model variant: original or extended")
	f.Int("max-tic", 0, "Tics to simulate (0 = variant default)")
	f.Int("intensity", 0, "Training intensity, 0-100")
	f.Float64("hours-of-sleep", 0, "Hours of sleep per night")
	f.Int("days-between-workouts", 0, "Workout cadence in days")
	f.Int("slow-twitch", 0, "Slow-twitch fiber percentage, 0-100")
	f.Bool("lift", true, "Enable weight training")
	f.Float64("nutrition-quality", 0, "Nutrition multiplier (extended variant)")

	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hypertrophy version %s\n", version)
		},
	}
}

func runSimulation(cmd *cobra.Command, logOut io.Writer) error {
	flags := cmd.Flags()

	level, _ := flags.GetString("log-level")
	logging.Setup(level, logOut)

	configPath, _ := flags.GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := applyOverrides(cmd, cfg); err != nil {
		return err
	}

	outputDir, _ := flags.GetString("output-dir")
	snapshotDir, _ := flags.GetString("snapshot-dir")
	logStats, _ := flags.GetBool("log-stats")
	plot, _ := flags.GetBool("plot")
	statsWindow, _ := flags.GetInt("stats-window")
	seed, _ := flags.GetInt64("seed")

	s, err := sim.New(cfg, sim.Options{
		Seed:        seed,
		StatsWindow: statsWindow,
		OutputDir:   outputDir,
		SnapshotDir: snapshotDir,
		LogStats:    logStats,
		Plot:        plot,
	})
	if err != nil {
		return err
	}

	p := s.Params()
	slog.Info("starting simulation",
		"seed", s.Seed(),
		"variant", cfg.Run.Variant,
		"max_tic", s.MaxTic(),
		"intensity", p.Intensity,
		"hours_of_sleep", p.HoursOfSleep,
		"days_between_workouts", p.DaysBetweenWorkouts,
		"slow_twitch", p.SlowTwitchFiberPercentage,
		"lift", p.LiftEnabled,
		"output_dir", outputDir,
	)

	summary, err := s.Run(cmd.Context())
	if err != nil {
		var ie *muscle.InvariantError
		if errors.As(err, &ie) {
			slog.Error("invariant broken",
				"tic", ie.Tic, "x", ie.X, "y", ie.Y,
				"stage", ie.Stage, "field", ie.Field, "value", ie.Value)
		}
		return err
	}

	slog.Info("run complete", "summary", summary)
	return nil
}

// applyOverrides copies explicitly set flags over the loaded config.
func applyOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error
	set := func(name string, apply func()) {
		if err == nil && flags.Changed(name) {
			apply()
		}
	}

	set("variant", func() { cfg.Run.Variant, err = flags.GetString("variant") })
	set("max-tic", func() { cfg.Run.MaxTic, err = flags.GetInt("max-tic") })
	set("intensity", func() { cfg.Subject.Intensity, err = flags.GetInt("intensity") })
	set("hours-of-sleep", func() { cfg.Subject.HoursOfSleep, err = flags.GetFloat64("hours-of-sleep") })
	set("days-between-workouts", func() {
		cfg.Subject.DaysBetweenWorkouts, err = flags.GetInt("days-between-workouts")
	})
	set("slow-twitch", func() { cfg.Subject.SlowTwitchFiberPercentage, err = flags.GetInt("slow-twitch") })
	set("lift", func() { cfg.Subject.Lift, err = flags.GetBool("lift") })
	set("nutrition-quality", func() { cfg.Subject.NutritionQuality, err = flags.GetFloat64("nutrition-quality") })
	if err != nil {
		return fmt.Errorf("reading flags: %w", err)
	}

	cfg.ComputeDerived()
	return nil
}
