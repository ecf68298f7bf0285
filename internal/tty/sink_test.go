package tty

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/math/f64"

	"github.com/iburimskiy/cardbounce/internal/bounce"
	"github.com/iburimskiy/cardbounce/internal/config"
	"github.com/iburimskiy/cardbounce/internal/control"
	"github.com/iburimskiy/cardbounce/internal/effect"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestSink(t *testing.T) (*Sink, tcell.SimulationScreen, *effect.ManualClock) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	t.Cleanup(screen.Fini)
	screen.SetSize(80, 24)

	cfg := config.Default()
	bc, err := cfg.Bounce()
	require.NoError(t, err)
	sim, err := bounce.New(bc, cfg.HalfExtents(), bounce.Boundary{HalfWidth: 640, HalfHeight: 360})
	require.NoError(t, err)

	clk := effect.NewManualClock(t0)
	rnd := func() float64 { return 0.5 }
	s := New(screen, Options{
		Config: cfg,
		Sim:    sim,
		Shift:  effect.NewColorShift(clk, 400*time.Millisecond, 0.1, 0.2, rnd, 0),
		Sparks: effect.NewSparks(clk, 6, 40, 600*time.Millisecond, rnd),
		Chime:  effect.NewChime(effect.ChimeSampleRate, 880, func(beep.Streamer) {}, &sync.Mutex{}),
		Clock:  clk,
	})
	t.Cleanup(s.Close)
	return s, screen, clk
}

func row(screen tcell.SimulationScreen, y int) string {
	w, _ := screen.Size()
	var b strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, _ := screen.GetContent(x, y)
		b.WriteRune(r)
	}
	return b.String()
}

func TestBoundaryFollowsScreen(t *testing.T) {
	s, _, _ := newTestSink(t)
	// 80 cols x 8px, 23 card rows x 16px
	assert.Equal(t, bounce.Boundary{HalfWidth: 320, HalfHeight: 184}, s.sim.Boundary())

	s.HandleEvent(tcell.NewEventResize(100, 31))
	assert.Equal(t, bounce.Boundary{HalfWidth: 400, HalfHeight: 240}, s.sim.Boundary())
	assert.Equal(t, 100, s.cols)

	// a one-row terminal has no card area
	s.Resize(100, 1)
	assert.Equal(t, bounce.Boundary{HalfWidth: 400, HalfHeight: 240}, s.sim.Boundary())
	assert.Equal(t, 31, s.rows)
}

func TestDrawCard(t *testing.T) {
	s, screen, _ := newTestSink(t)
	s.Draw()

	x0, y0, x1, y1 := s.cardRect(s.sim.State())
	assert.Equal(t, []int{8, 3, 72, 21}, []int{x0, y0, x1, y1})

	_, _, face, _ := screen.GetContent(10, 5)
	_, bg, _ := face.Decompose()
	assert.Equal(t, tcell.NewRGBColor(255, 0, 0), bg, "hue 0 is red")

	_, _, outside, _ := screen.GetContent(2, 1)
	_, bg, _ = outside.Decompose()
	assert.Equal(t, tcell.ColorBlack, bg)

	assert.Contains(t, row(screen, 12), "BUSINESS CARD")
	status := row(screen, 23)
	assert.Contains(t, status, "bounces 0")
	assert.Contains(t, status, "speed  4.00")
}

func TestSparksDrawn(t *testing.T) {
	s, screen, clk := newTestSink(t)
	s.sparks.Spawn(f64.Vec2{0, 0})
	s.Draw()
	// rnd 0.5 puts every spark on the card centre
	r, _, _, _ := screen.GetContent(40, 11)
	assert.Equal(t, '*', r)

	clk.Advance(time.Second)
	s.Draw()
	r, _, _, _ = screen.GetContent(40, 11)
	assert.NotEqual(t, '*', r)
}

func TestKeys(t *testing.T) {
	s, _, _ := newTestSink(t)
	key := func(k tcell.Key, r rune) bool {
		return s.HandleEvent(tcell.NewEventKey(k, r, tcell.ModNone))
	}

	assert.False(t, key(tcell.KeyRight, 0))
	assert.False(t, key(tcell.KeyRune, 'l'))
	assert.False(t, key(tcell.KeyUp, 0))
	assert.Equal(t, f64.Vec2{20, -10}, s.sim.Body().Position)

	assert.False(t, key(tcell.KeyPgUp, 0))
	assert.InDelta(t, 3.14159265, s.sim.Body().Rotation, 1e-6)

	assert.False(t, key(tcell.KeyRune, ' '))
	assert.True(t, s.paused)
	pos := s.sim.Body().Position
	s.Step()
	assert.Equal(t, pos, s.sim.Body().Position)
	assert.False(t, key(tcell.KeyRune, ' '))
	s.Step()
	assert.NotEqual(t, pos, s.sim.Body().Position)

	assert.False(t, key(tcell.KeyRune, 'm'))
	assert.True(t, s.chime.Muted())

	assert.False(t, key(tcell.KeyHome, 0))
	assert.Equal(t, f64.Vec2{}, s.sim.Body().Position)

	assert.False(t, key(tcell.KeyRune, 'x'))
	assert.True(t, key(tcell.KeyRune, 'q'))
	assert.True(t, key(tcell.KeyEscape, 0))
}

func TestKeyIntent(t *testing.T) {
	tests := []struct {
		key  tcell.Key
		r    rune
		want control.Intent
	}{
		{tcell.KeyLeft, 0, control.IntentNudgeLeft},
		{tcell.KeyRune, 'h', control.IntentNudgeLeft},
		{tcell.KeyDown, 0, control.IntentNudgeDown},
		{tcell.KeyRune, 'j', control.IntentNudgeDown},
		{tcell.KeyPgDn, 0, control.IntentSpinBackward},
		{tcell.KeyRune, 'r', control.IntentReset},
		{tcell.KeyCtrlC, 0, control.IntentQuit},
		{tcell.KeyRune, 'Q', control.IntentQuit},
		{tcell.KeyRune, 'o', control.IntentNone},
		{tcell.KeyRune, 'H', control.IntentPushLeft},
		{tcell.KeyRune, 'K', control.IntentPushUp},
		{tcell.KeyRune, 'J', control.IntentPushDown},
	}
	for _, tt := range tests {
		got := keyIntent(tcell.NewEventKey(tt.key, tt.r, tcell.ModNone))
		assert.Equal(t, tt.want, got, "key %v rune %q", tt.key, tt.r)
	}

	assert.Equal(t, control.IntentPushRight, keyIntent(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModShift)))
	assert.Equal(t, control.IntentPushDown, keyIntent(tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModShift)))
	assert.Equal(t, control.IntentNudgeRight, keyIntent(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone)))
}

func TestRunQuits(t *testing.T) {
	s, screen, _ := newTestSink(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()

	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestRunStopsOnContext(t *testing.T) {
	s, _, _ := newTestSink(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Run(ctx), context.Canceled)
}
