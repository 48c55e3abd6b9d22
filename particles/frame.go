package particles

import (
	"math/rand"

	"github.com/pthm-cable/sparks/vmath"
)

// Frame is the per-update context handed to every influencer. It belongs
// to one controller and is rebuilt at the start of each Update.
type Frame struct {
	Delta    float32 // seconds
	DeltaSqr float32
	Count    int // live particles, fixed for the influencer phase
	Rand     *rand.Rand

	// Angular composes the spins of one particle at a time. Influencers
	// leave it at identity when they return.
	Angular vmath.Accumulator
}

func (f *Frame) begin(dt float32, rng *rand.Rand) {
	f.Delta = dt
	f.DeltaSqr = dt * dt
	f.Rand = rng
	f.Angular.Reset()
}
