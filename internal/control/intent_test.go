package control

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/math/f64"

	"github.com/iburimskiy/cardbounce/internal/bounce"
)

func newSim(t *testing.T) *bounce.Simulator {
	t.Helper()
	sim, err := bounce.New(bounce.DefaultConfig(), f64.Vec2{50, 25}, bounce.Boundary{HalfWidth: 400, HalfHeight: 300})
	require.NoError(t, err)
	return sim
}

func TestApplyNudge(t *testing.T) {
	sim := newSim(t)
	steps := Steps{Nudge: 10, Spin: math.Pi}

	assert.True(t, Apply(sim, IntentNudgeRight, steps))
	assert.True(t, Apply(sim, IntentNudgeUp, steps))
	assert.True(t, Apply(sim, IntentNudgeUp, steps))
	assert.Equal(t, f64.Vec2{10, -20}, sim.Body().Position)

	assert.True(t, Apply(sim, IntentNudgeLeft, steps))
	assert.True(t, Apply(sim, IntentNudgeDown, steps))
	assert.Equal(t, f64.Vec2{0, -10}, sim.Body().Position)
	assert.Zero(t, sim.Ticks())
}

func TestApplyPush(t *testing.T) {
	cfg := bounce.DefaultConfig()
	sim, err := bounce.New(cfg, f64.Vec2{50, 25}, bounce.Boundary{HalfWidth: 400, HalfHeight: 300})
	require.NoError(t, err)
	v := sim.Body().Velocity

	assert.True(t, Apply(sim, IntentPushLeft, Steps{}))
	assert.Equal(t, -math.Abs(v[0]), sim.Body().Velocity[0])
	assert.True(t, Apply(sim, IntentPushRight, Steps{}))
	assert.Equal(t, math.Abs(v[0]), sim.Body().Velocity[0])
	assert.True(t, Apply(sim, IntentPushUp, Steps{}))
	assert.True(t, Apply(sim, IntentPushUp, Steps{}), "pushing twice keeps the sign")
	up := sim.Body().Velocity[1]
	assert.True(t, Apply(sim, IntentPushDown, Steps{}))
	down := sim.Body().Velocity[1]

	if v[1] == 0 {
		// a stopped component starts at the base speed
		assert.Equal(t, -math.Max(cfg.BaseSpeed, cfg.MinSpeed), up)
	} else {
		assert.Equal(t, -math.Abs(v[1]), up)
	}
	assert.Equal(t, -up, down)
	assert.Equal(t, f64.Vec2{}, sim.Body().Position, "pushing does not move the body")
}

func TestApplySpinAndReset(t *testing.T) {
	sim := newSim(t)
	steps := Steps{Nudge: 10, Spin: 180}

	Apply(sim, IntentSpinForward, steps)
	assert.Equal(t, 180.0, sim.Body().Rotation)
	Apply(sim, IntentSpinBackward, steps)
	Apply(sim, IntentSpinBackward, steps)
	assert.Equal(t, -180.0, sim.Body().Rotation)

	Apply(sim, IntentNudgeRight, steps)
	assert.True(t, Apply(sim, IntentReset, steps))
	assert.Equal(t, f64.Vec2{}, sim.Body().Position)
	assert.Zero(t, sim.Body().Rotation)
}

func TestFrontendIntentsNotApplied(t *testing.T) {
	sim := newSim(t)
	before := sim.Body()
	for _, i := range []Intent{IntentNone, IntentPause, IntentOpen, IntentMute, IntentQuit} {
		assert.False(t, Apply(sim, i, Steps{Nudge: 10}), i.String())
	}
	assert.Equal(t, before, sim.Body())
}

func TestIntentString(t *testing.T) {
	assert.Equal(t, "spin-forward", IntentSpinForward.String())
	assert.Equal(t, "push-up", IntentPushUp.String())
	assert.Equal(t, "quit", IntentQuit.String())
	assert.Equal(t, "unknown", Intent(200).String())
}
