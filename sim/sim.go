// Package sim drives a muscle grid through a full run: setup, the tic loop,
// per-tic observations and the telemetry around them.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/hypertrophy/config"
	"github.com/pthm-cable/hypertrophy/logging"
	"github.com/pthm-cable/hypertrophy/muscle"
	"github.com/pthm-cable/hypertrophy/telemetry"
)

// bookmarkHistory is the number of stats windows kept for bookmark detection.
const bookmarkHistory = 10

// Observer receives every observation, starting with tic 0 after setup.
// Returning an error aborts the run.
type Observer func(obs telemetry.Observation) error

// Options configures a simulation run beyond the loaded config.
type Options struct {
	Seed        int64    // 0 = config run.seed, then time-based
	StatsWindow int      // tics per stats window, 0 = config
	OutputDir   string   // empty disables file output
	SnapshotDir string   // grid snapshots on bookmarks, empty disables
	LogStats    bool     // log stats windows, perf and bookmarks via slog
	Plot        bool     // render PNG charts into OutputDir at the end
	Observer    Observer // optional per-tic callback
}

// Simulation owns one grid for the lifetime of one run.
type Simulation struct {
	cfg    *config.Config
	params config.Params
	seed   int64
	grid   *muscle.Grid

	tic       int
	setupDone bool
	lastFlush int

	collector     *telemetry.Collector
	perf          *telemetry.PerfCollector
	bookmarks     *telemetry.BookmarkDetector
	bookmarkCount int
	output        *telemetry.OutputManager

	logStats    bool
	plot        bool
	snapshotDir string
	series      []telemetry.Observation
	observer    Observer
}

// New validates cfg, sprouts the grid from a seeded generator and opens the
// output directory. The config snapshot written to the output records the
// resolved seed so the run can be replayed.
func New(cfg *config.Config, opts Options) (*Simulation, error) {
	params, err := cfg.Params()
	if err != nil {
		return nil, err
	}

	seed := opts.Seed
	if seed == 0 {
		seed = cfg.Run.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	grid, err := muscle.NewGrid(params, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, err
	}

	window := opts.StatsWindow
	if window <= 0 {
		window = cfg.Telemetry.StatsWindow
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}

	snapshot := cfg.Clone()
	snapshot.Run.Seed = seed
	if err := output.WriteConfig(snapshot); err != nil {
		output.Close()
		return nil, err
	}

	return &Simulation{
		cfg:         snapshot,
		params:      params,
		seed:        seed,
		grid:        grid,
		collector:   telemetry.NewCollector(window),
		perf:        telemetry.NewPerfCollector(window),
		bookmarks:   telemetry.NewBookmarkDetector(bookmarkHistory),
		output:      output,
		logStats:    opts.LogStats,
		plot:        opts.Plot || cfg.Telemetry.Plot,
		snapshotDir: opts.SnapshotDir,
		observer:    opts.Observer,
	}, nil
}

// Seed returns the seed the grid was sprouted from.
func (s *Simulation) Seed() int64 { return s.seed }

// Tic returns the number of completed tics.
func (s *Simulation) Tic() int { return s.tic }

// MaxTic returns the tic at which Run stops.
func (s *Simulation) MaxTic() int { return s.params.MaxTic }

// Params returns the validated run parameters.
func (s *Simulation) Params() config.Params { return s.params }

// Grid exposes the underlying grid for inspection.
func (s *Simulation) Grid() *muscle.Grid { return s.grid }

// Done reports whether the run has reached MaxTic.
func (s *Simulation) Done() bool { return s.tic >= s.params.MaxTic }

// Setup runs the initial hormone regulation and emits the tic-0 observation.
func (s *Simulation) Setup() error {
	if s.setupDone {
		return nil
	}
	if err := s.grid.Setup(); err != nil {
		return err
	}
	s.setupDone = true

	obs := telemetry.Observe(0, s.grid)
	s.collector.Start(obs)
	return s.emit(obs)
}

// Step advances one tic and returns its observation. Setup must have run.
func (s *Simulation) Step() (telemetry.Observation, error) {
	if !s.setupDone {
		return telemetry.Observation{}, fmt.Errorf("step before setup")
	}
	if s.Done() {
		return telemetry.Observation{}, fmt.Errorf("run already reached max tic %d", s.params.MaxTic)
	}

	s.perf.StartTic()
	s.perf.StartPhase(telemetry.PhaseStep)
	st, err := s.grid.Step(s.tic)
	if err != nil {
		return telemetry.Observation{}, err
	}
	s.tic++

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	obs := telemetry.Observe(s.tic, s.grid)
	s.collector.RecordStep(st)
	s.collector.RecordObservation(obs)

	s.perf.StartPhase(telemetry.PhaseOutput)
	if err := s.emit(obs); err != nil {
		return obs, err
	}
	s.perf.EndTic()

	if s.collector.ShouldFlush(s.tic) {
		if err := s.flushTelemetry(); err != nil {
			return obs, err
		}
	}
	return obs, nil
}

// Run executes setup (if needed) and every remaining tic, then finishes the
// run. The context is checked between tics.
func (s *Simulation) Run(ctx context.Context) (telemetry.RunSummary, error) {
	if err := s.Setup(); err != nil {
		s.Close()
		return telemetry.RunSummary{}, err
	}
	for !s.Done() {
		if err := ctx.Err(); err != nil {
			s.Close()
			return s.Summary(), err
		}
		if _, err := s.Step(); err != nil {
			s.Close()
			return s.Summary(), err
		}
	}
	return s.Finish()
}

// Summary returns the run totals recorded so far.
func (s *Simulation) Summary() telemetry.RunSummary {
	summary := s.collector.Summary()
	summary.Seed = s.seed
	summary.Variant = s.cfg.Run.Variant
	summary.Bookmarks = s.bookmarkCount
	return summary
}

// Finish flushes the last partial stats window, writes the summary and
// plots, and closes the output files.
func (s *Simulation) Finish() (telemetry.RunSummary, error) {
	defer s.Close()

	if s.tic > s.lastFlush {
		if err := s.flushTelemetry(); err != nil {
			return s.Summary(), err
		}
	}

	summary := s.Summary()
	if err := s.output.WriteSummary(summary); err != nil {
		return summary, err
	}
	if s.plot {
		if err := s.output.WritePlots(s.series); err != nil {
			return summary, err
		}
	}
	return summary, s.Close()
}

// Close releases the output files. It is safe to call more than once.
func (s *Simulation) Close() error {
	err := s.output.Close()
	s.output = nil
	return err
}

func (s *Simulation) emit(obs telemetry.Observation) error {
	slog.Log(context.Background(), logging.LevelTrace, "tic", "observation", obs)
	if s.plot && s.output != nil {
		s.series = append(s.series, obs)
	}
	if err := s.output.WriteObservation(obs); err != nil {
		return err
	}
	if s.observer != nil {
		return s.observer(obs)
	}
	return nil
}
