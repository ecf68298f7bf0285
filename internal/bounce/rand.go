package bounce

import "math/rand"

// Rand is the subset of *rand.Rand the simulator draws from, so tests can
// supply a seeded or scripted source.
type Rand interface {
	// Float64 returns a number in [0.0, 1.0).
	Float64() float64

	// Intn returns a number in [0, n). It panics if n <= 0.
	Intn(n int) int
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) Intn(n int) int   { return rand.Intn(n) }

// randRate returns a rotation rate uniformly in [-1, 1).
func randRate(r Rand) float64 {
	return r.Float64()*2 - 1
}
