package game

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/math/f64"

	"github.com/iburimskiy/cardbounce/internal/bounce"
	"github.com/iburimskiy/cardbounce/internal/config"
	"github.com/iburimskiy/cardbounce/internal/control"
	"github.com/iburimskiy/cardbounce/internal/effect"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestGame(t *testing.T, picker func() (string, error)) (*Game, *effect.ManualClock) {
	t.Helper()
	cfg := config.Default()
	bc, err := cfg.Bounce()
	require.NoError(t, err)
	sim, err := bounce.New(bc, cfg.HalfExtents(), bounce.Boundary{HalfWidth: 640, HalfHeight: 360})
	require.NoError(t, err)

	clk := effect.NewManualClock(t0)
	rnd := func() float64 { return 0.5 }
	g := New(context.Background(), Options{
		Config: cfg,
		Sim:    sim,
		Shift:  effect.NewColorShift(clk, cfg.Effects.ColorShiftDuration.Std(), 0.1, 0.2, rnd, 0),
		Sparks: effect.NewSparks(clk, 6, 40, cfg.Effects.SparkLife.Std(), rnd),
		Chime:  effect.NewChime(effect.ChimeSampleRate, 880, func(beep.Streamer) {}, &sync.Mutex{}),
		Clock:  clk,
		Picker: picker,
	})
	t.Cleanup(g.Close)
	return g, clk
}

func TestTrailSnapshot(t *testing.T) {
	tr := newTrail(3)
	assert.Empty(t, tr.snapshot(5))

	tr.push(f64.Vec2{1, 1})
	tr.push(f64.Vec2{2, 2})
	assert.Equal(t, []f64.Vec2{{1, 1}, {2, 2}}, tr.snapshot(5))

	tr.push(f64.Vec2{3, 3})
	tr.push(f64.Vec2{4, 4})
	assert.Equal(t, []f64.Vec2{{2, 2}, {3, 3}, {4, 4}}, tr.snapshot(3))
	assert.Equal(t, []f64.Vec2{{3, 3}, {4, 4}}, tr.snapshot(2))

	tr.reset()
	assert.Empty(t, tr.snapshot(3))
	newTrail(0).push(f64.Vec2{1, 1})
}

func TestParallax(t *testing.T) {
	p := NewParallax(config.Parallax{MaxTilt: 30, GyroScale: 0.25, Lerp: 0.5})

	p.PointAt(400, 300, 800, 600)
	assert.Equal(t, f64.Vec2{0, 0}, p.Target())

	p.PointAt(800, 0, 800, 600)
	assert.Equal(t, f64.Vec2{-15, 15}, p.Target())
	assert.Equal(t, f64.Vec2{-7.5, 7.5}, p.Step())
	assert.Equal(t, f64.Vec2{-11.25, 11.25}, p.Step())

	p.SetOrientation(40, 20)
	assert.Equal(t, f64.Vec2{10, -5}, p.Target())

	// zero-sized surfaces are ignored
	p.PointAt(1, 1, 0, 0)
	assert.Equal(t, f64.Vec2{10, -5}, p.Target())
}

func TestParallaxConverges(t *testing.T) {
	p := NewParallax(config.Default().Parallax)
	p.PointAt(0, 0, 100, 100)
	for range 500 {
		p.Step()
	}
	assert.InDelta(t, -15, p.Tilt()[0], 1e-6)
	assert.InDelta(t, -15, p.Tilt()[1], 1e-6)
}

func TestKeyIntents(t *testing.T) {
	held := map[ebiten.Key]int{}
	press := func(k ebiten.Key) int { return held[k] }

	assert.Empty(t, keyIntents(press))

	held[ebiten.KeyArrowLeft] = 1
	held[ebiten.KeyHome] = 1
	assert.Equal(t, []control.Intent{control.IntentNudgeLeft, control.IntentReset}, keyIntents(press))

	// only arrows repeat while held
	held[ebiten.KeyArrowLeft] = keyRepeatDelay
	held[ebiten.KeyHome] = keyRepeatDelay
	assert.Equal(t, []control.Intent{control.IntentNudgeLeft}, keyIntents(press))

	held[ebiten.KeyArrowLeft] = keyRepeatDelay + 1
	assert.Empty(t, keyIntents(press))
	held[ebiten.KeyArrowLeft] = keyRepeatDelay + keyRepeatEvery
	assert.Equal(t, []control.Intent{control.IntentNudgeLeft}, keyIntents(press))

	held = map[ebiten.Key]int{ebiten.KeyQ: 1}
	assert.Equal(t, []control.Intent{control.IntentQuit}, keyIntents(press))

	// Shift turns arrows into pushes, which do not repeat
	held = map[ebiten.Key]int{ebiten.KeyShiftLeft: 4, ebiten.KeyArrowUp: 1, ebiten.KeyHome: 1}
	assert.Equal(t, []control.Intent{control.IntentPushUp, control.IntentReset}, keyIntents(press))
	held[ebiten.KeyArrowUp] = keyRepeatDelay
	assert.Empty(t, keyIntents(press))
	held = map[ebiten.Key]int{ebiten.KeyShiftRight: 1, ebiten.KeyArrowRight: 1}
	assert.Equal(t, []control.Intent{control.IntentPushRight}, keyIntents(press))
}

func TestCardTransform(t *testing.T) {
	pos := f64.Vec2{100, -50}
	half := f64.Vec2{256, 144}

	m := cardTransform(pos, half, 0.7, f64.Vec2{}, 512, 288, 1280, 720)
	x, y := m.Apply(256, 144)
	assert.InDelta(t, 740, x, 1e-9)
	assert.InDelta(t, 310, y, 1e-9)

	// a texture of another size still covers the body
	m = cardTransform(f64.Vec2{}, half, 0, f64.Vec2{}, 128, 72, 1280, 720)
	x, y = m.Apply(128, 72)
	assert.InDelta(t, 640+256, x, 1e-9)
	assert.InDelta(t, 360+144, y, 1e-9)

	// tilting about the vertical axis foreshortens the width
	m = cardTransform(f64.Vec2{}, half, 0, f64.Vec2{0, 60}, 512, 288, 1280, 720)
	x, _ = m.Apply(512, 0)
	assert.InDelta(t, 640+128, x, 1e-9)
}

func TestApplyIntent(t *testing.T) {
	g, _ := newTestGame(t, nil)

	require.NoError(t, g.applyIntent(control.IntentNudgeRight))
	assert.Equal(t, float64(config.NudgeStep), g.sim.Body().Position[0])

	require.NoError(t, g.applyIntent(control.IntentPause))
	assert.True(t, g.paused)
	require.NoError(t, g.applyIntent(control.IntentPause))
	assert.False(t, g.paused)

	require.NoError(t, g.applyIntent(control.IntentMute))
	assert.True(t, g.chime.Muted())

	g.trail.push(f64.Vec2{1, 2})
	require.NoError(t, g.applyIntent(control.IntentReset))
	assert.Empty(t, g.trail.snapshot(10))

	assert.ErrorIs(t, g.applyIntent(control.IntentQuit), ebiten.Termination)
}

func TestPicker(t *testing.T) {
	calls := 0
	g, _ := newTestGame(t, func() (string, error) {
		calls++
		return "", errors.New("no display")
	})

	require.NoError(t, g.applyIntent(control.IntentOpen))
	require.NoError(t, g.applyIntent(control.IntentOpen))

	r := <-g.picked
	assert.EqualError(t, r.err, "no display")
	assert.Equal(t, 1, calls, "a second open while the dialog is up is ignored")
}

func TestLayoutResizesBoundary(t *testing.T) {
	g, _ := newTestGame(t, nil)
	w, h := g.Layout(1280, 720)
	assert.Equal(t, 1280, w)
	assert.Equal(t, 720, h)

	w, h = g.Layout(800, 600)
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)
	assert.Equal(t, bounce.Boundary{HalfWidth: 400, HalfHeight: 300}, g.sim.Boundary())

	w, h = g.Layout(0, 0)
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)
}

func TestBounceCountAndStatus(t *testing.T) {
	g, clk := newTestGame(t, nil)
	g.Layout(600, 300)
	for range 400 {
		g.sim.Tick()
	}
	assert.Positive(t, g.bounces)

	clk.Advance(83 * time.Second)
	g.paused = true
	s := g.status(g.sim.State(), clk.Now())
	assert.Contains(t, s, "up 01:23")
	assert.Contains(t, s, "[paused]")
	assert.NotContains(t, s, "[no audio]")

	g.lastErr = errors.New("decode card.png: bad")
	assert.Contains(t, g.status(g.sim.State(), clk.Now()), "Error: decode card.png: bad")

	g.Close()
	n := g.bounces
	for range 400 {
		g.sim.Tick()
	}
	assert.Equal(t, n, g.bounces)
}

func TestColourHelpers(t *testing.T) {
	red := colorful.Color{R: 1}
	c := withAlpha(red, 0.5)
	assert.Equal(t, uint8(127), c.R)
	assert.Equal(t, uint8(127), c.A)
	assert.Zero(t, c.G)

	r, g, b := tint(red)
	assert.InDelta(t, 1, r, 1e-6)
	assert.InDelta(t, 0.45, g, 1e-6)
	assert.InDelta(t, 0.45, b, 1e-6)

	assert.Equal(t, "00:59", formatDuration(59*time.Second))
	assert.Equal(t, "61:01", formatDuration(time.Hour+time.Minute+time.Second))
	assert.Equal(t, 1.0, clamp01(3))
	assert.InDelta(t, math.Pi, deg2rad(180), 1e-12)
}

func TestLightSweep(t *testing.T) {
	assert.InDelta(t, 1+lightSweepAmount, lightSweep(0), 1e-12)
	secs := 2 * math.Pi * float64(time.Second)
	half := time.Duration(secs)
	assert.InDelta(t, 1-lightSweepAmount, lightSweep(half), 1e-9)
	assert.InDelta(t, 1, lightSweep(half/2), 1e-9)
}
