package muscle

import (
	"fmt"
	"math"

	"github.com/pthm-cable/hypertrophy/config"
)

// neighborOffsets are the 8 surrounding cells in row-major order.
var neighborOffsets = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// Grid owns the fixed array of patches and drives them through one tic at a
// time. A Grid is not safe for concurrent use; separate runs use separate
// grids.
type Grid struct {
	params config.Params
	rng    RNG

	width, height int
	patches       []Patch // row-major: index = y*width + x
	neighbors     [][]int // in-bounds neighbor indices per patch

	// Diffusion snapshot buffers
	snapAnabolic  []float64
	snapCatabolic []float64

	tic int // tic currently being stepped, for error reports
}

// StepStats summarizes what happened during one tic.
type StepStats struct {
	TrainingDue bool // grid-wide training gate was open
	Pulses      int  // patches whose training pulse fired
}

// NewGrid builds the grid, sprouting one fiber per patch from rng in
// row-major order. Hormones start at their minimums.
func NewGrid(params config.Params, rng RNG) (*Grid, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	w, h := params.GridWidth, params.GridHeight
	g := &Grid{
		params:        params,
		rng:           rng,
		width:         w,
		height:        h,
		patches:       make([]Patch, w*h),
		neighbors:     make([][]int, w*h),
		snapAnabolic:  make([]float64, w*h),
		snapCatabolic: make([]float64, w*h),
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := g.index(x, y)
			g.patches[i] = Patch{
				X:         x,
				Y:         y,
				Anabolic:  params.AnabolicMin,
				Catabolic: params.CatabolicMin,
				Fiber:     NewFiber(i+1, params.SlowTwitchFiberPercentage, rng),
			}
			g.neighbors[i] = g.neighborIndices(x, y)
		}
	}

	return g, nil
}

func (g *Grid) index(x, y int) int {
	return y*g.width + x
}

func (g *Grid) inBounds(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

func (g *Grid) neighborIndices(x, y int) []int {
	out := make([]int, 0, len(neighborOffsets))
	for _, d := range neighborOffsets {
		nx, ny := x+d[0], y+d[1]
		if g.inBounds(nx, ny) {
			out = append(out, g.index(nx, ny))
		}
	}
	return out
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// Params returns the parameters the grid was built with.
func (g *Grid) Params() config.Params { return g.params }

// At returns the patch at (x, y), or nil when out of bounds.
func (g *Grid) At(x, y int) *Patch {
	if !g.inBounds(x, y) {
		return nil
	}
	return &g.patches[g.index(x, y)]
}

// Neighbors returns the up to 8 in-bounds patches surrounding (x, y).
func (g *Grid) Neighbors(x, y int) []*Patch {
	if !g.inBounds(x, y) {
		return nil
	}
	idx := g.neighbors[g.index(x, y)]
	out := make([]*Patch, len(idx))
	for k, n := range idx {
		out[k] = &g.patches[n]
	}
	return out
}

// ForEach applies fn to every patch in row-major order.
func (g *Grid) ForEach(fn func(p *Patch)) {
	for i := range g.patches {
		fn(&g.patches[i])
	}
}

// TrainingDue reports whether training fires on tic. It is decided once per
// tic for the whole grid.
func (g *Grid) TrainingDue(tic int) bool {
	return g.params.TrainingDue(tic)
}

// Setup runs the initial hormone regulation before the first tic.
func (g *Grid) Setup() error {
	g.tic = 0
	g.RegulateHormones()
	return g.checkBounds("setup")
}

// Step advances the grid by one tic: daily activity, training when due, eat
// (extended variant), sleep, hormone regulation and fiber development. Any
// broken invariant aborts the tic with an *InvariantError.
func (g *Grid) Step(tic int) (StepStats, error) {
	g.tic = tic
	stats := StepStats{TrainingDue: g.TrainingDue(tic)}

	g.StepDailyActivity()
	if stats.TrainingDue {
		stats.Pulses = g.StepTraining()
	}
	if g.params.Extended {
		g.StepEat()
	}

	if err := g.checkPositive("sleep"); err != nil {
		return stats, err
	}
	g.StepSleep()

	g.RegulateHormones()
	if err := g.checkBounds("regulate"); err != nil {
		return stats, err
	}

	g.DevelopFibers()
	if err := g.checkFibers(); err != nil {
		return stats, err
	}

	return stats, nil
}

// StepDailyActivity runs PerformDailyActivity on every patch.
func (g *Grid) StepDailyActivity() {
	g.ForEach((*Patch).PerformDailyActivity)
}

// StepTraining runs LiftWeight on every patch and returns how many pulses
// fired. Callers gate it with TrainingDue.
func (g *Grid) StepTraining() int {
	pulses := 0
	intensity := g.params.Intensity
	g.ForEach(func(p *Patch) {
		if p.LiftWeight(intensity, g.rng) {
			pulses++
		}
	})
	return pulses
}

// StepEat applies the nutrition scaling to every patch.
func (g *Grid) StepEat() {
	q, r := g.params.NutritionQuality, g.params.NutritionResponse
	g.ForEach(func(p *Patch) { p.Eat(q, r) })
}

// StepSleep applies overnight hormone clearance to every patch.
func (g *Grid) StepSleep() {
	hours := g.params.HoursOfSleep
	g.ForEach(func(p *Patch) { p.Sleep(hours) })
}

// RegulateHormones diffuses hormone across the grid, then clamps every
// patch to its bounds. Clamping after diffusion keeps a patch from exporting
// out-of-range mass and then escaping its limits.
func (g *Grid) RegulateHormones() {
	g.Diffuse()
	params := &g.params
	g.ForEach(func(p *Patch) { p.ClampHormones(params) })
}

// DevelopFibers grows and clamps every fiber.
func (g *Grid) DevelopFibers() {
	g.ForEach((*Patch).DevelopMuscle)
}

// TotalMuscleMass returns the summed fiber size divided by 100.
func (g *Grid) TotalMuscleMass() float64 {
	var sum float64
	for i := range g.patches {
		sum += g.patches[i].Fiber.Size
	}
	return sum / 100
}

// AverageAnabolic returns the mean anabolic concentration.
func (g *Grid) AverageAnabolic() float64 {
	var sum float64
	for i := range g.patches {
		sum += g.patches[i].Anabolic
	}
	return sum / float64(len(g.patches))
}

// AverageCatabolic returns the mean catabolic concentration.
func (g *Grid) AverageCatabolic() float64 {
	var sum float64
	for i := range g.patches {
		sum += g.patches[i].Catabolic
	}
	return sum / float64(len(g.patches))
}

// FiberSizes appends every fiber size to dst in row-major order.
func (g *Grid) FiberSizes(dst []float64) []float64 {
	for i := range g.patches {
		dst = append(dst, g.patches[i].Fiber.Size)
	}
	return dst
}

// InvariantError reports a patch whose state left its valid domain. It is
// fatal for the run.
type InvariantError struct {
	Tic   int
	X, Y  int
	Stage string
	Field string
	Value float64
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant broken at tic %d, patch (%d,%d), stage %s: %s = %v",
		e.Tic, e.X, e.Y, e.Stage, e.Field, e.Value)
}

func (g *Grid) invariant(p *Patch, stage, field string, v float64) *InvariantError {
	return &InvariantError{Tic: g.tic, X: p.X, Y: p.Y, Stage: stage, Field: field, Value: v}
}

// checkPositive guards the log10 terms of the next stage.
func (g *Grid) checkPositive(stage string) error {
	for i := range g.patches {
		p := &g.patches[i]
		if !(p.Anabolic > 0) || math.IsInf(p.Anabolic, 0) {
			return g.invariant(p, stage, "anabolic", p.Anabolic)
		}
		if !(p.Catabolic > 0) || math.IsInf(p.Catabolic, 0) {
			return g.invariant(p, stage, "catabolic", p.Catabolic)
		}
	}
	return nil
}

func (g *Grid) checkBounds(stage string) error {
	for i := range g.patches {
		p := &g.patches[i]
		if !(p.Anabolic >= g.params.AnabolicMin && p.Anabolic <= g.params.AnabolicMax) {
			return g.invariant(p, stage, "anabolic", p.Anabolic)
		}
		if !(p.Catabolic >= g.params.CatabolicMin && p.Catabolic <= g.params.CatabolicMax) {
			return g.invariant(p, stage, "catabolic", p.Catabolic)
		}
	}
	return nil
}

func (g *Grid) checkFibers() error {
	for i := range g.patches {
		p := &g.patches[i]
		if !(p.Fiber.Size >= fiberMinSize && p.Fiber.Size <= float64(p.Fiber.MaxSize)) {
			return g.invariant(p, "develop", "fiber size", p.Fiber.Size)
		}
	}
	return nil
}
