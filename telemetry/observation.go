// Package telemetry provides per-tic observations, windowed fiber statistics,
// bookmarks and CSV/plot output for simulation runs.
package telemetry

import (
	"log/slog"

	"github.com/pthm-cable/hypertrophy/muscle"
)

// Observation is the grid-level aggregate record emitted after setup and
// after every tic.
type Observation struct {
	Tic              int     `csv:"tic"`
	MuscleMass       float64 `csv:"muscle_mass"`
	AverageAnabolic  float64 `csv:"anabolic"`
	AverageCatabolic float64 `csv:"catabolic"`
}

// Observe reads the aggregates of g as of tic.
func Observe(tic int, g *muscle.Grid) Observation {
	return Observation{
		Tic:              tic,
		MuscleMass:       g.TotalMuscleMass(),
		AverageAnabolic:  g.AverageAnabolic(),
		AverageCatabolic: g.AverageCatabolic(),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (o Observation) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("tic", o.Tic),
		slog.Float64("muscle_mass", o.MuscleMass),
		slog.Float64("anabolic", o.AverageAnabolic),
		slog.Float64("catabolic", o.AverageCatabolic),
	)
}
