// Package bounce implements the single-body edge-bounce simulation that drives
// the card: per-tick integration, axis-independent collision response with
// damping and a speed floor, and synchronous bounce notifications.
package bounce

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/image/math/f64"
)

// Mode selects how a velocity component is reflected on an edge hit.
type Mode int

const (
	// ModeIndependentAxis negates and damps the component on every hit,
	// whichever way the body is moving.
	ModeIndependentAxis Mode = iota

	// ModeClampReflect always points the damped component back inward.
	ModeClampReflect
)

func (m Mode) String() string {
	switch m {
	case ModeIndependentAxis:
		return "independent-axis"
	case ModeClampReflect:
		return "clamp-and-reflect"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts the names returned by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "independent-axis", "independent":
		return ModeIndependentAxis, nil
	case "clamp-and-reflect", "clamp":
		return ModeClampReflect, nil
	}
	return 0, &ConfigError{Field: "collision mode", Value: s, Reason: "want independent-axis or clamp-and-reflect"}
}

// Config holds the physics constants of a simulator.
type Config struct {
	// Damping is the speed retained by a velocity component on a bounce, in (0, 1].
	Damping float64

	// MinSpeed is the floor below which a damped component may not fall.
	MinSpeed float64

	// BaseSpeed is the speed given to the body by Reset.
	BaseSpeed float64

	// InitialAngles are the launch directions in degrees. When empty the
	// direction is drawn from [0, 2π).
	InitialAngles []float64

	// RotationScale converts the rotation rate into rotation per tick.
	RotationScale float64

	Mode Mode
}

// DefaultConfig matches the extruded-card variant: six launch angles 60° apart.
func DefaultConfig() Config {
	return Config{
		Damping:       0.95,
		MinSpeed:      2,
		BaseSpeed:     4,
		InitialAngles: []float64{0, 60, 120, 180, 240, 300},
		RotationScale: 0.01,
		Mode:          ModeIndependentAxis,
	}
}

// Validate reports the first invalid field as a *ConfigError.
func (c Config) Validate() error {
	switch {
	case !(c.Damping > 0 && c.Damping <= 1):
		return &ConfigError{Field: "damping", Value: c.Damping, Reason: "must be in (0, 1]"}
	case !(c.MinSpeed >= 0) || math.IsInf(c.MinSpeed, 0):
		return &ConfigError{Field: "min speed", Value: c.MinSpeed, Reason: "must be a finite value >= 0"}
	case !(c.BaseSpeed > 0) || math.IsInf(c.BaseSpeed, 0):
		return &ConfigError{Field: "base speed", Value: c.BaseSpeed, Reason: "must be a finite value > 0"}
	case math.IsNaN(c.RotationScale) || math.IsInf(c.RotationScale, 0):
		return &ConfigError{Field: "rotation scale", Value: c.RotationScale, Reason: "must be finite"}
	case c.Mode != ModeIndependentAxis && c.Mode != ModeClampReflect:
		return &ConfigError{Field: "collision mode", Value: c.Mode, Reason: "unknown mode"}
	}
	for _, a := range c.InitialAngles {
		if math.IsNaN(a) || math.IsInf(a, 0) {
			return &ConfigError{Field: "initial angle", Value: a, Reason: "must be finite"}
		}
	}
	return nil
}

func validateExtent(field string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return &ConfigError{Field: field, Value: v, Reason: "must be a finite value > 0"}
	}
	return nil
}

// BounceEvent describes one edge hit on one axis.
type BounceEvent struct {
	Axis     Axis
	Edge     float64  // +1 for the right/bottom edge, -1 for the left/top edge
	Position f64.Vec2 // after clamping
	Velocity f64.Vec2 // after reflection
	Tick     uint64
}

// BounceHandler is invoked synchronously from Tick.
type BounceHandler func(BounceEvent)

type subscription struct {
	id uint64
	fn BounceHandler
}

// Option customises a Simulator.
type Option func(*Simulator)

// WithRand replaces the package-level random source.
func WithRand(r Rand) Option {
	return func(s *Simulator) {
		if r != nil {
			s.rng = r
		}
	}
}

// Simulator owns one Body and the Boundary it bounces in.
// It is not safe for concurrent use; the tick driver owns it.
type Simulator struct {
	cfg      Config
	body     Body
	boundary Boundary
	rng      Rand

	ticks    uint64
	handlers []subscription
	nextID   uint64
}

// New validates the configuration and returns a simulator that has already
// been Reset.
func New(cfg Config, halfExtents f64.Vec2, boundary Boundary, opts ...Option) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateExtent("body half-width", halfExtents[0]); err != nil {
		return nil, err
	}
	if err := validateExtent("body half-height", halfExtents[1]); err != nil {
		return nil, err
	}
	if err := validateBoundary(boundary); err != nil {
		return nil, err
	}

	cfg.InitialAngles = append([]float64(nil), cfg.InitialAngles...)
	s := &Simulator{
		cfg:      cfg,
		body:     Body{HalfExtents: halfExtents},
		boundary: boundary,
		rng:      globalRand{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset()
	return s, nil
}

func validateBoundary(b Boundary) error {
	if err := validateExtent("boundary half-width", b.HalfWidth); err != nil {
		return err
	}
	return validateExtent("boundary half-height", b.HalfHeight)
}

// Reset centres the body, zeroes its rotation and launches it at BaseSpeed in
// a randomly chosen direction with a fresh rotation rate.
func (s *Simulator) Reset() {
	var theta float64
	if n := len(s.cfg.InitialAngles); n > 0 {
		theta = s.cfg.InitialAngles[s.rng.Intn(n)] * math.Pi / 180
	} else {
		theta = s.rng.Float64() * 2 * math.Pi
	}

	s.body.Position = f64.Vec2{0, 0}
	s.body.Velocity = f64.Vec2{s.cfg.BaseSpeed * math.Cos(theta), s.cfg.BaseSpeed * math.Sin(theta)}
	s.body.Rotation = 0
	s.body.RotationRate = randRate(s.rng)
}

// Tick advances the simulation by one frame and returns the new state.
func (s *Simulator) Tick() State {
	b := &s.body
	s.ticks++

	b.Rotation += b.RotationRate * s.cfg.RotationScale
	b.Position[0] += b.Velocity[0]
	b.Position[1] += b.Velocity[1]

	var bounced AxisSet
	for _, a := range Axes {
		limit := s.boundary.Limit(b, a)
		if math.Abs(b.Position[a]) <= limit {
			continue
		}
		edge := sign(b.Position[a])
		b.Velocity[a] = s.reflect(b.Velocity[a], edge)
		b.Position[a] = edge * limit
		b.RotationRate = randRate(s.rng)
		bounced = bounced.With(a)

		s.emit(BounceEvent{
			Axis:     a,
			Edge:     edge,
			Position: b.Position,
			Velocity: b.Velocity,
			Tick:     s.ticks,
		})
	}
	return s.state(bounced)
}

func (s *Simulator) reflect(v, edge float64) float64 {
	switch s.cfg.Mode {
	case ModeClampReflect:
		v = -edge * math.Abs(v) * s.cfg.Damping
	default:
		v *= -s.cfg.Damping
	}
	return sign(v) * math.Max(math.Abs(v), s.cfg.MinSpeed)
}

func (s *Simulator) emit(ev BounceEvent) {
	if len(s.handlers) == 0 {
		return
	}
	// handlers may unsubscribe while we iterate
	hs := append([]subscription(nil), s.handlers...)
	for _, h := range hs {
		h.fn(ev)
	}
}

// OnBounce registers fn for every axis bounce. The returned func removes it.
func (s *Simulator) OnBounce(fn BounceHandler) (unsubscribe func()) {
	s.nextID++
	id := s.nextID
	s.handlers = append(s.handlers, subscription{id: id, fn: fn})
	return func() {
		for i, h := range s.handlers {
			if h.id == id {
				s.handlers = append(s.handlers[:i], s.handlers[i+1:]...)
				return
			}
		}
	}
}

// Nudge moves the body along one axis, clamped to the current boundary.
// It never triggers a bounce.
func (s *Simulator) Nudge(a Axis, delta float64) {
	limit := s.boundary.Limit(&s.body, a)
	s.body.Position[a] = clamp(s.body.Position[a]+delta, -limit, limit)
}

// ForceDirection makes the velocity component along a point towards dir
// (positive or negative). A stopped component is started at BaseSpeed.
func (s *Simulator) ForceDirection(a Axis, dir float64) {
	d := sign(dir)
	if d == 0 {
		return
	}
	mag := math.Abs(s.body.Velocity[a])
	if mag == 0 {
		mag = math.Max(s.cfg.BaseSpeed, s.cfg.MinSpeed)
	}
	s.body.Velocity[a] = d * mag
}

// Spin adds delta to the accumulated rotation.
func (s *Simulator) Spin(delta float64) {
	s.body.Rotation += delta
}

// SetBoundary replaces the boundary, typically after a resize, and pulls the
// body back inside it. Invalid sizes are rejected and the old boundary kept.
func (s *Simulator) SetBoundary(halfWidth, halfHeight float64) error {
	b := Boundary{HalfWidth: halfWidth, HalfHeight: halfHeight}
	if err := validateBoundary(b); err != nil {
		return err
	}
	s.boundary = b
	for _, a := range Axes {
		limit := b.Limit(&s.body, a)
		s.body.Position[a] = clamp(s.body.Position[a], -limit, limit)
	}
	return nil
}

// Body returns a copy of the body.
func (s *Simulator) Body() Body { return s.body }

// Boundary returns the current boundary.
func (s *Simulator) Boundary() Boundary { return s.boundary }

// Config returns the simulator configuration.
func (s *Simulator) Config() Config { return s.cfg }

// Ticks returns the number of ticks run so far.
func (s *Simulator) Ticks() uint64 { return s.ticks }

// State returns the current state without advancing.
func (s *Simulator) State() State { return s.state(0) }

func (s *Simulator) state(bounced AxisSet) State {
	return State{
		Position:     s.body.Position,
		Velocity:     s.body.Velocity,
		HalfExtents:  s.body.HalfExtents,
		Rotation:     s.body.Rotation,
		RotationRate: s.body.RotationRate,
		Bounced:      bounced,
		Tick:         s.ticks,
	}
}
