package telemetry

import (
	"errors"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const (
	plotWidth  = 10 * vg.Inch
	plotHeight = 4 * vg.Inch
)

var errNoSeries = errors.New("no observations to plot")

// PlotMuscleMass renders muscle mass over tics to a PNG at path.
func PlotMuscleMass(path string, series []Observation) error {
	if len(series) == 0 {
		return errNoSeries
	}

	p := plot.New()
	p.Title.Text = "Muscle mass"
	p.X.Label.Text = "Tic"
	p.Y.Label.Text = "Mass (sum of fiber size / 100)"

	pts := make(plotter.XYs, len(series))
	for i, o := range series {
		pts[i].X = float64(o.Tic)
		pts[i].Y = o.MuscleMass
	}
	if err := plotutil.AddLines(p, "mass", pts); err != nil {
		return fmt.Errorf("adding mass line: %w", err)
	}

	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("saving mass plot: %w", err)
	}
	return nil
}

// PlotHormones renders the average anabolic and catabolic concentrations
// over tics to a PNG at path.
func PlotHormones(path string, series []Observation) error {
	if len(series) == 0 {
		return errNoSeries
	}

	p := plot.New()
	p.Title.Text = "Average hormone concentration"
	p.X.Label.Text = "Tic"
	p.Y.Label.Text = "Concentration"

	anabolic := make(plotter.XYs, len(series))
	catabolic := make(plotter.XYs, len(series))
	for i, o := range series {
		anabolic[i].X = float64(o.Tic)
		anabolic[i].Y = o.AverageAnabolic
		catabolic[i].X = float64(o.Tic)
		catabolic[i].Y = o.AverageCatabolic
	}
	if err := plotutil.AddLines(p, "anabolic", anabolic, "catabolic", catabolic); err != nil {
		return fmt.Errorf("adding hormone lines: %w", err)
	}

	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("saving hormone plot: %w", err)
	}
	return nil
}
