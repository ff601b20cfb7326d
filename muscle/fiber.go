// Package muscle implements the tissue model: fibers, hormone patches and the
// grid that diffuses hormone between them once per tic.
package muscle

import "math"

// RNG is the uniform [0,1) source injected into the model.
// *math/rand.Rand satisfies it.
type RNG interface {
	Float64() float64
}

// Fiber growth constants.
const (
	fiberBaseSize    = 4    // MaxSize before sprouting
	fiberSproutTries = 20   // Bernoulli trials that may each add one unit of capacity
	fiberInitMin     = 0.2  // Initial size fraction lower bound
	fiberInitSpan    = 0.4  // Initial size fraction span
	fiberGrowthRate  = 0.2  // Weight of both log-hormone terms in Grow
	fiberGrowthCap   = 1.05 // Anabolic drive is capped at this multiple of log10(catabolic)
	fiberMinSize     = 1.0
)

// Fiber is the contractile unit of a patch. MaxSize is fixed at creation.
type Fiber struct {
	ID      int
	MaxSize int
	Size    float64
}

// NewFiber sprouts a fiber. Each of 20 trials adds one unit of capacity with
// probability (100 - slowTwitchPct)/100, so fast-twitch heavy tissue grows
// larger fibers. The starting size is 20-60% of that capacity.
func NewFiber(id, slowTwitchPct int, rng RNG) Fiber {
	pFast := float64(100-slowTwitchPct) / 100

	maxSize := fiberBaseSize
	for i := 0; i < fiberSproutTries; i++ {
		if rng.Float64() < pFast {
			maxSize++
		}
	}

	f := Fiber{
		ID:      id,
		MaxSize: maxSize,
		Size:    float64(maxSize) * (fiberInitMin + fiberInitSpan*rng.Float64()),
	}
	f.Clamp()
	return f
}

// Grow applies one tic of hormone-driven growth. Catabolic hormone both
// shrinks the fiber and caps how much the anabolic signal can add back.
// Both hormones must be positive. Call Clamp afterwards.
func (f *Fiber) Grow(anabolic, catabolic float64) {
	logC := math.Log10(catabolic)
	f.Size -= fiberGrowthRate * logC
	f.Size += fiberGrowthRate * math.Min(math.Log10(anabolic), fiberGrowthCap*logC)
}

// Clamp bounds Size to [1, MaxSize].
func (f *Fiber) Clamp() {
	if f.Size < fiberMinSize {
		f.Size = fiberMinSize
	}
	if hi := float64(f.MaxSize); f.Size > hi {
		f.Size = hi
	}
}

// AtCap reports whether the fiber has reached its maximum size.
func (f *Fiber) AtCap() bool {
	return f.Size >= float64(f.MaxSize)
}

// AtFloor reports whether the fiber has shrunk to the minimum size.
func (f *Fiber) AtFloor() bool {
	return f.Size <= fiberMinSize
}
