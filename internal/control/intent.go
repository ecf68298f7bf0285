// Package control turns key presses from either frontend into intents and
// applies the ones that act on the simulator.
package control

import "github.com/iburimskiy/cardbounce/internal/bounce"

// Intent is a frontend-independent action.
type Intent uint8

const (
	IntentNone Intent = iota

	// Simulator
	IntentNudgeLeft
	IntentNudgeRight
	IntentNudgeUp
	IntentNudgeDown
	IntentPushLeft // force the velocity sign
	IntentPushRight
	IntentPushUp
	IntentPushDown
	IntentReset
	IntentSpinForward  // PageUp
	IntentSpinBackward // PageDown

	// Frontend
	IntentPause
	IntentOpen
	IntentMute
	IntentQuit
)

var intentNames = [...]string{
	IntentNone:         "none",
	IntentNudgeLeft:    "nudge-left",
	IntentNudgeRight:   "nudge-right",
	IntentNudgeUp:      "nudge-up",
	IntentNudgeDown:    "nudge-down",
	IntentPushLeft:     "push-left",
	IntentPushRight:    "push-right",
	IntentPushUp:       "push-up",
	IntentPushDown:     "push-down",
	IntentReset:        "reset",
	IntentSpinForward:  "spin-forward",
	IntentSpinBackward: "spin-backward",
	IntentPause:        "pause",
	IntentOpen:         "open",
	IntentMute:         "mute",
	IntentQuit:         "quit",
}

func (i Intent) String() string {
	if int(i) < len(intentNames) {
		return intentNames[i]
	}
	return "unknown"
}

// Steps holds the per-press amounts for the simulator intents.
type Steps struct {
	Nudge float64 // pixels
	Spin  float64 // simulator rotation units
}

// Apply performs i on sim and reports whether it was a simulator intent.
// Frontend intents are left to the caller.
func Apply(sim *bounce.Simulator, i Intent, s Steps) bool {
	switch i {
	case IntentNudgeLeft:
		sim.Nudge(bounce.AxisX, -s.Nudge)
	case IntentNudgeRight:
		sim.Nudge(bounce.AxisX, s.Nudge)
	case IntentNudgeUp:
		sim.Nudge(bounce.AxisY, -s.Nudge)
	case IntentNudgeDown:
		sim.Nudge(bounce.AxisY, s.Nudge)
	case IntentPushLeft:
		sim.ForceDirection(bounce.AxisX, -1)
	case IntentPushRight:
		sim.ForceDirection(bounce.AxisX, 1)
	case IntentPushUp:
		sim.ForceDirection(bounce.AxisY, -1)
	case IntentPushDown:
		sim.ForceDirection(bounce.AxisY, 1)
	case IntentReset:
		sim.Reset()
	case IntentSpinForward:
		sim.Spin(s.Spin)
	case IntentSpinBackward:
		sim.Spin(-s.Spin)
	default:
		return false
	}
	return true
}
