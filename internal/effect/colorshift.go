package effect

import (
	"math"
	"sync"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/iburimskiy/cardbounce/internal/bounce"
)

const (
	shiftSaturation = 1.0
	shiftLightness  = 0.5
)

// ColorShift tweens the card hue forward on every bounce. A new trigger
// starts from the hue currently shown, so tweens never jump.
type ColorShift struct {
	clock  Clock
	dur    time.Duration
	step   float64
	jitter float64
	rnd    func() float64
	slot   Slot

	mu    sync.Mutex
	from  float64
	to    float64 // unwrapped, may exceed 1
	start time.Time
	done  bool
}

// NewColorShift starts at hue (0..1). Each trigger advances the hue by
// step plus rnd()*jitter over dur.
func NewColorShift(clk Clock, dur time.Duration, step, jitter float64, rnd func() float64, hue float64) *ColorShift {
	h := wrap(hue)
	return &ColorShift{
		clock:  clk,
		dur:    dur,
		step:   step,
		jitter: jitter,
		rnd:    rnd,
		from:   h,
		to:     h,
		done:   true,
	}
}

// Trigger begins a new tween, superseding any tween in flight.
func (c *ColorShift) Trigger() {
	now := c.clock.Now()
	c.mu.Lock()
	tok := c.slot.Acquire()
	cur := c.hueLocked(now)
	c.from = cur
	c.to = cur + c.step + c.rnd()*c.jitter
	c.start = now
	c.done = false
	c.mu.Unlock()

	c.slot.Arm(tok, c.clock, c.dur, func() { c.settle(tok) })
}

// OnBounce is a bounce.BounceHandler.
func (c *ColorShift) OnBounce(bounce.BounceEvent) { c.Trigger() }

func (c *ColorShift) settle(tok *Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if tok.Cancelled() {
		return
	}
	c.from = wrap(c.to)
	c.to = c.from
	c.done = true
}

// Hue returns the hue shown at now, in [0, 1).
func (c *ColorShift) Hue(now time.Time) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hueLocked(now)
}

// Target is the hue the current tween ends on.
func (c *ColorShift) Target() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return wrap(c.to)
}

// Active reports whether a tween is still running.
func (c *ColorShift) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.done
}

func (c *ColorShift) hueLocked(now time.Time) float64 {
	if c.done || c.dur <= 0 {
		return wrap(c.to)
	}
	t := float64(now.Sub(c.start)) / float64(c.dur)
	t = math.Max(0, math.Min(1, t))
	return wrap(c.from + (c.to-c.from)*t)
}

// Color returns the card colour at now.
func (c *ColorShift) Color(now time.Time) colorful.Color {
	return colorful.Hsl(c.Hue(now)*360, shiftSaturation, shiftLightness).Clamped()
}

func wrap(h float64) float64 {
	h = math.Mod(h, 1)
	if h < 0 {
		h++
	}
	return h
}
