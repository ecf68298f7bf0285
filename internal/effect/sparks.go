package effect

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/image/math/f64"

	"github.com/iburimskiy/cardbounce/internal/bounce"
)

// SparkOpacity is the opacity of a fresh burst.
const SparkOpacity = 0.9

// Sparks is a burst of points scattered around the card on each bounce.
type Sparks struct {
	clock  Clock
	count  int
	spread float64
	life   time.Duration
	rnd    func() float64
	slot   Slot

	mu      sync.Mutex
	points  []f64.Vec2
	opacity atomic.Uint64 // math.Float64bits
	spawned time.Time
}

func NewSparks(clk Clock, count int, spread float64, life time.Duration, rnd func() float64) *Sparks {
	return &Sparks{
		clock:  clk,
		count:  count,
		spread: spread,
		life:   life,
		rnd:    rnd,
	}
}

// Spawn replaces the burst with count points within ±spread/2 of centre
// and hides them again after the configured life.
func (s *Sparks) Spawn(centre f64.Vec2) {
	s.mu.Lock()
	tok := s.slot.Acquire()
	pts := make([]f64.Vec2, s.count)
	for i := range pts {
		pts[i] = f64.Vec2{
			centre[0] + (s.rnd()-0.5)*s.spread,
			centre[1] + (s.rnd()-0.5)*s.spread,
		}
	}
	s.points = pts
	s.spawned = s.clock.Now()
	s.setOpacity(SparkOpacity)
	s.mu.Unlock()

	s.slot.Arm(tok, s.clock, s.life, func() { s.hide(tok) })
}

func (s *Sparks) hide(tok *Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.Cancelled() {
		return
	}
	s.setOpacity(0)
}

// OnBounce is a bounce.BounceHandler.
func (s *Sparks) OnBounce(e bounce.BounceEvent) { s.Spawn(e.Position) }

func (s *Sparks) setOpacity(v float64) { s.opacity.Store(math.Float64bits(v)) }

// Opacity is SparkOpacity while a burst is live and 0 otherwise.
func (s *Sparks) Opacity() float64 { return math.Float64frombits(s.opacity.Load()) }

// Fade is Opacity eased linearly towards 0 over the burst life, for
// renderers that want a smooth fade-out.
func (s *Sparks) Fade(now time.Time) float64 {
	o := s.Opacity()
	if o == 0 || s.life <= 0 {
		return o
	}
	s.mu.Lock()
	age := now.Sub(s.spawned)
	s.mu.Unlock()
	return o * math.Max(0, 1-float64(age)/float64(s.life))
}

// Points returns a copy of the current burst.
func (s *Sparks) Points() []f64.Vec2 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]f64.Vec2(nil), s.points...)
}
