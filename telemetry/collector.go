package telemetry

import "github.com/pthm-cable/hypertrophy/muscle"

// Collector accumulates training events within tic windows and produces
// WindowStats. It also tracks run-wide totals for the run summary.
type Collector struct {
	windowTics int

	// Current window tracking
	windowStartTic  int
	windowStartMass float64

	// Event counters for current window
	sessions int
	pulses   int

	summary RunSummary
	sizes   []float64 // scratch buffer for fiber sizes
}

// NewCollector creates a new stats collector.
// windowTics: how many tics each stats window spans (minimum 1).
func NewCollector(windowTics int) *Collector {
	if windowTics < 1 {
		windowTics = 1
	}
	return &Collector{windowTics: windowTics}
}

// Start records the tic-0 observation taken right after setup.
func (c *Collector) Start(obs Observation) {
	c.windowStartTic = obs.Tic
	c.windowStartMass = obs.MuscleMass
	c.summary = RunSummary{
		InitialMass: obs.MuscleMass,
		PeakMass:    obs.MuscleMass,
		PeakTic:     obs.Tic,
		MinMass:     obs.MuscleMass,
		MinTic:      obs.Tic,
		FinalMass:   obs.MuscleMass,
	}
}

// RecordStep records the training outcome of one tic.
func (c *Collector) RecordStep(st muscle.StepStats) {
	if st.TrainingDue {
		c.sessions++
		c.summary.TrainingSessions++
	}
	c.pulses += st.Pulses
	c.summary.Pulses += st.Pulses
}

// RecordObservation updates the run-wide extrema.
func (c *Collector) RecordObservation(obs Observation) {
	s := &c.summary
	s.Tics = obs.Tic
	s.FinalMass = obs.MuscleMass
	s.FinalAnabolic = obs.AverageAnabolic
	s.FinalCatabolic = obs.AverageCatabolic
	if obs.MuscleMass > s.PeakMass {
		s.PeakMass = obs.MuscleMass
		s.PeakTic = obs.Tic
	}
	if obs.MuscleMass < s.MinMass {
		s.MinMass = obs.MuscleMass
		s.MinTic = obs.Tic
	}
}

// ShouldFlush returns true if enough tics have passed to flush the window.
func (c *Collector) ShouldFlush(tic int) bool {
	return tic-c.windowStartTic >= c.windowTics
}

// Flush produces a WindowStats from the grid state at tic and resets the
// counters for the next window.
func (c *Collector) Flush(tic int, g *muscle.Grid) WindowStats {
	c.sizes = g.FiberSizes(c.sizes[:0])
	mean, std, p10, p50, p90 := ComputeSizeStats(c.sizes)

	var atCap, atFloor int
	g.ForEach(func(p *muscle.Patch) {
		if p.Fiber.AtCap() {
			atCap++
		}
		if p.Fiber.AtFloor() {
			atFloor++
		}
	})

	mass := g.TotalMuscleMass()

	var pulseRate float64
	if c.sessions > 0 && len(c.sizes) > 0 {
		pulseRate = float64(c.pulses) / float64(c.sessions*len(c.sizes))
	}

	stats := WindowStats{
		WindowStartTic: c.windowStartTic,
		WindowEndTic:   tic,

		MuscleMass:       mass,
		MassDelta:        mass - c.windowStartMass,
		AverageAnabolic:  g.AverageAnabolic(),
		AverageCatabolic: g.AverageCatabolic(),

		FiberMean: mean,
		FiberStd:  std,
		FiberP10:  p10,
		FiberP50:  p50,
		FiberP90:  p90,
		AtCap:     atCap,
		AtFloor:   atFloor,
		Fibers:    len(c.sizes),

		TrainingSessions: c.sessions,
		Pulses:           c.pulses,
		PulseRate:        pulseRate,
	}

	// Reset for next window
	c.windowStartTic = tic
	c.windowStartMass = mass
	c.sessions = 0
	c.pulses = 0

	return stats
}

// Summary returns the run-wide totals recorded so far.
func (c *Collector) Summary() RunSummary {
	return c.summary
}

// WindowTics returns the number of tics per window.
func (c *Collector) WindowTics() int {
	return c.windowTics
}
