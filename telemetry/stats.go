package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a window of tics.
type WindowStats struct {
	WindowStartTic int `csv:"-"`
	WindowEndTic   int `csv:"window_end"`

	// Grid aggregates at window end
	MuscleMass       float64 `csv:"muscle_mass"`
	MassDelta        float64 `csv:"mass_delta"` // change since window start
	AverageAnabolic  float64 `csv:"anabolic"`
	AverageCatabolic float64 `csv:"catabolic"`

	// Fiber size distribution (sampled at window end)
	FiberMean float64 `csv:"fiber_mean"`
	FiberStd  float64 `csv:"fiber_std"`
	FiberP10  float64 `csv:"fiber_p10"`
	FiberP50  float64 `csv:"fiber_p50"`
	FiberP90  float64 `csv:"fiber_p90"`
	AtCap     int     `csv:"at_cap"`   // fibers at their maximum size
	AtFloor   int     `csv:"at_floor"` // fibers at the minimum size
	Fibers    int     `csv:"fibers"`

	// Training during window
	TrainingSessions int     `csv:"training_sessions"`
	Pulses           int     `csv:"pulses"`
	PulseRate        float64 `csv:"pulse_rate"` // pulses per patch per session
}

// ComputeSizeStats calculates mean, population standard deviation and
// percentiles of fiber sizes. Returns zeros for an empty slice.
func ComputeSizeStats(values []float64) (mean, std, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0, 0
	}

	mean, std = stat.PopMeanStdDev(values, nil)

	// Sort a copy for quantiles
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = stat.Quantile(0.10, stat.LinInterp, sorted, nil)
	p50 = stat.Quantile(0.50, stat.LinInterp, sorted, nil)
	p90 = stat.Quantile(0.90, stat.LinInterp, sorted, nil)

	return mean, std, p10, p50, p90
}

// CapFraction returns the share of fibers at their maximum size.
func (s WindowStats) CapFraction() float64 {
	if s.Fibers == 0 {
		return 0
	}
	return float64(s.AtCap) / float64(s.Fibers)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartTic),
		slog.Int("window_end", s.WindowEndTic),
		slog.Float64("muscle_mass", s.MuscleMass),
		slog.Float64("mass_delta", s.MassDelta),
		slog.Float64("anabolic", s.AverageAnabolic),
		slog.Float64("catabolic", s.AverageCatabolic),
		slog.Float64("fiber_mean", s.FiberMean),
		slog.Float64("fiber_std", s.FiberStd),
		slog.Float64("fiber_p10", s.FiberP10),
		slog.Float64("fiber_p50", s.FiberP50),
		slog.Float64("fiber_p90", s.FiberP90),
		slog.Int("at_cap", s.AtCap),
		slog.Int("at_floor", s.AtFloor),
		slog.Int("training_sessions", s.TrainingSessions),
		slog.Int("pulses", s.Pulses),
		slog.Float64("pulse_rate", s.PulseRate),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
