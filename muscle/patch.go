package muscle

import (
	"math"

	"github.com/pthm-cable/hypertrophy/config"
)

// Hormone response coefficients.
const (
	activityAnabolic  = 2.5
	activityCatabolic = 2.0
	liftAnabolic      = 55.0
	liftCatabolic     = 44.0
	sleepAnabolic     = 0.48
	sleepCatabolic    = 0.5
)

// Patch is one grid cell: a local tissue region with its own hormone
// concentrations and a single fiber. X and Y never change.
type Patch struct {
	X, Y      int
	Anabolic  float64
	Catabolic float64
	Fiber     Fiber

	// Hormone gained since the start of the current tic; scaled by Eat.
	gainAnabolic  float64
	gainCatabolic float64
}

// PerformDailyActivity adds baseline metabolic signaling proportional to the
// log of the fiber size. It runs first every tic and resets the daily gain.
func (p *Patch) PerformDailyActivity() {
	s := math.Log10(p.Fiber.Size)
	p.gainAnabolic = s * activityAnabolic
	p.gainCatabolic = s * activityCatabolic
	p.Anabolic += p.gainAnabolic
	p.Catabolic += p.gainCatabolic
}

// LiftWeight draws once from rng and, with probability (intensity/100)^2,
// applies a training pulse. It reports whether the pulse fired.
func (p *Patch) LiftWeight(intensity int, rng RNG) bool {
	frac := float64(intensity) / 100
	if rng.Float64() >= frac*frac {
		return false
	}

	s := math.Log10(p.Fiber.Size)
	da, dc := s*liftAnabolic, s*liftCatabolic
	p.gainAnabolic += da
	p.gainCatabolic += dc
	p.Anabolic += da
	p.Catabolic += dc
	return true
}

// Eat scales the hormone gained so far this tic by
// 1 + (quality-1)*response. Quality 1 leaves the patch unchanged; with
// response in [0,1] and quality >= 0 the net daily gain stays non-negative.
func (p *Patch) Eat(quality, response float64) {
	extra := (quality - 1) * response
	p.Anabolic += p.gainAnabolic * extra
	p.Catabolic += p.gainCatabolic * extra
}

// Sleep clears hormone overnight; catabolic clears slightly faster.
func (p *Patch) Sleep(hours float64) {
	p.Anabolic -= sleepAnabolic * math.Log10(p.Anabolic) * hours
	p.Catabolic -= sleepCatabolic * math.Log10(p.Catabolic) * hours
}

// ClampHormones bounds both concentrations to their physiological range.
func (p *Patch) ClampHormones(params *config.Params) {
	p.Anabolic = clamp(p.Anabolic, params.AnabolicMin, params.AnabolicMax)
	p.Catabolic = clamp(p.Catabolic, params.CatabolicMin, params.CatabolicMax)
}

// DevelopMuscle grows the fiber from the current hormone levels.
func (p *Patch) DevelopMuscle() {
	p.Fiber.Grow(p.Anabolic, p.Catabolic)
	p.Fiber.Clamp()
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
