package bounce

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Axis selects a component of a 2D vector.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	default:
		return "?"
	}
}

// Axes lists the axes in the order collisions are resolved.
var Axes = [2]Axis{AxisX, AxisY}

// Body is the single rectangular card under simulation.
type Body struct {
	Position     f64.Vec2 // centre, origin at the boundary centre
	Velocity     f64.Vec2 // displacement per tick
	HalfExtents  f64.Vec2 // fixed for the body's lifetime
	RotationRate float64  // in [-1, 1), scaled by Config.RotationScale each tick
	Rotation     float64  // cosmetic, never affects collision
}

// Boundary is the container the body must stay within, centred on the origin.
type Boundary struct {
	HalfWidth  float64
	HalfHeight float64
}

// Half returns the boundary half-extent along an axis.
func (b Boundary) Half(a Axis) float64 {
	if a == AxisX {
		return b.HalfWidth
	}
	return b.HalfHeight
}

// Limit returns how far the body centre may travel from the origin along an
// axis. A body larger than the boundary is pinned to the centre.
func (b Boundary) Limit(body *Body, a Axis) float64 {
	return math.Max(0, b.Half(a)-body.HalfExtents[a])
}

// AxisSet is a small bit set of axes.
type AxisSet uint8

func (s AxisSet) Has(a Axis) bool { return s&(1<<uint(a)) != 0 }

func (s AxisSet) With(a Axis) AxisSet { return s | 1<<uint(a) }

// Len returns the number of axes in the set.
func (s AxisSet) Len() int {
	n := 0
	for _, a := range Axes {
		if s.Has(a) {
			n++
		}
	}
	return n
}

// State is a read-only snapshot handed to render sinks after each tick.
type State struct {
	Position     f64.Vec2
	Velocity     f64.Vec2
	HalfExtents  f64.Vec2
	Rotation     float64
	RotationRate float64
	Bounced      AxisSet
	Tick         uint64
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Speed returns the magnitude of a velocity vector.
func Speed(v f64.Vec2) float64 {
	return math.Hypot(v[0], v[1])
}
