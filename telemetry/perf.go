package telemetry

import (
	"log/slog"
	"time"
)

// Phase names of one driver tic.
const (
	PhaseStep      = "step"      // grid.Step
	PhaseTelemetry = "telemetry" // observation, collector, bookmarks
	PhaseOutput    = "output"    // CSV writes
)

var phases = []string{PhaseStep, PhaseTelemetry, PhaseOutput}

// PerfSample holds timing data for a single tic.
type PerfSample struct {
	TicDuration time.Duration
	Phases      map[string]time.Duration
}

// PerfCollector tracks driver timings over a rolling window of tics.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	ticStart      time.Time
	phaseStart    time.Time
	lastPhase     string
}

// NewPerfCollector creates a new performance collector averaging over
// windowSize tics.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 100
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartTic begins timing a new tic.
func (p *PerfCollector) StartTic() {
	p.ticStart = time.Now()
	p.currentPhases = make(map[string]time.Duration, len(phases))
	p.lastPhase = ""
}

// StartPhase ends the running phase, if any, and begins timing phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndTic finishes timing the current tic and records the sample.
func (p *PerfCollector) EndTic() {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	p.samples[p.writeIndex] = PerfSample{
		TicDuration: now.Sub(p.ticStart),
		Phases:      p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgTicDuration time.Duration
	MinTicDuration time.Duration
	MaxTicDuration time.Duration

	// Average duration and share of tic time per phase
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	TicsPerSecond float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg: make(map[string]time.Duration),
			PhasePct: make(map[string]float64),
		}
	}

	var total, minTic, maxTic time.Duration
	phaseSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.TicDuration
		if i == 0 || s.TicDuration < minTic {
			minTic = s.TicDuration
		}
		if s.TicDuration > maxTic {
			maxTic = s.TicDuration
		}
		for phase, d := range s.Phases {
			phaseSum[phase] += d
		}
	}

	avg := total / time.Duration(p.sampleCount)

	phaseAvg := make(map[string]time.Duration, len(phaseSum))
	phasePct := make(map[string]float64, len(phaseSum))
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avg > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avg) * 100
		}
	}

	var ticsPerSec float64
	if avg > 0 {
		ticsPerSec = float64(time.Second) / float64(avg)
	}

	return PerfStats{
		AvgTicDuration: avg,
		MinTicDuration: minTic,
		MaxTicDuration: maxTic,
		PhaseAvg:       phaseAvg,
		PhasePct:       phasePct,
		TicsPerSecond:  ticsPerSec,
	}
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	slog.Info("perf", "timing", s)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tic_us", s.AvgTicDuration.Microseconds()),
		slog.Int64("min_tic_us", s.MinTicDuration.Microseconds()),
		slog.Int64("max_tic_us", s.MaxTicDuration.Microseconds()),
		slog.Float64("tics_per_sec", s.TicsPerSecond),
	}
	for _, phase := range phases {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd    int     `csv:"window_end"`
	AvgTicUS     int64   `csv:"avg_tic_us"`
	MinTicUS     int64   `csv:"min_tic_us"`
	MaxTicUS     int64   `csv:"max_tic_us"`
	TicsPerSec   float64 `csv:"tics_per_sec"`
	StepPct      float64 `csv:"step_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
	OutputPct    float64 `csv:"output_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgTicUS:     s.AvgTicDuration.Microseconds(),
		MinTicUS:     s.MinTicDuration.Microseconds(),
		MaxTicUS:     s.MaxTicDuration.Microseconds(),
		TicsPerSec:   s.TicsPerSecond,
		StepPct:      s.PhasePct[PhaseStep],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
		OutputPct:    s.PhasePct[PhaseOutput],
	}
}
