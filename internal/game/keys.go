package game

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/iburimskiy/cardbounce/internal/control"
)

// Held arrow keys repeat after keyRepeatDelay frames, every keyRepeatEvery.
const (
	keyRepeatDelay = 15
	keyRepeatEvery = 3
)

// shiftMode says how a binding treats the Shift modifier.
type shiftMode uint8

const (
	shiftAny shiftMode = iota
	shiftUp
	shiftDown
)

type keyBinding struct {
	key    ebiten.Key
	intent control.Intent
	repeat bool
	shift  shiftMode
}

var keyBindings = []keyBinding{
	{ebiten.KeyArrowLeft, control.IntentNudgeLeft, true, shiftUp},
	{ebiten.KeyArrowRight, control.IntentNudgeRight, true, shiftUp},
	{ebiten.KeyArrowUp, control.IntentNudgeUp, true, shiftUp},
	{ebiten.KeyArrowDown, control.IntentNudgeDown, true, shiftUp},
	{ebiten.KeyArrowLeft, control.IntentPushLeft, false, shiftDown},
	{ebiten.KeyArrowRight, control.IntentPushRight, false, shiftDown},
	{ebiten.KeyArrowUp, control.IntentPushUp, false, shiftDown},
	{ebiten.KeyArrowDown, control.IntentPushDown, false, shiftDown},
	{ebiten.KeyHome, control.IntentReset, false, shiftAny},
	{ebiten.KeyPageUp, control.IntentSpinForward, false, shiftAny},
	{ebiten.KeyPageDown, control.IntentSpinBackward, false, shiftAny},
	{ebiten.KeySpace, control.IntentPause, false, shiftAny},
	{ebiten.KeyO, control.IntentOpen, false, shiftAny},
	{ebiten.KeyM, control.IntentMute, false, shiftAny},
	{ebiten.KeyEscape, control.IntentQuit, false, shiftAny},
	{ebiten.KeyQ, control.IntentQuit, false, shiftAny},
}

// keyIntents returns the intents fired this frame. held reports for how
// many frames a key has been down, 0 if it is up (inpututil.KeyPressDuration).
func keyIntents(held func(ebiten.Key) int) []control.Intent {
	shifted := held(ebiten.KeyShiftLeft) > 0 || held(ebiten.KeyShiftRight) > 0
	var out []control.Intent
	for _, b := range keyBindings {
		if (b.shift == shiftUp && shifted) || (b.shift == shiftDown && !shifted) {
			continue
		}
		if fires(held(b.key), b.repeat) {
			out = append(out, b.intent)
		}
	}
	return out
}

func fires(frames int, repeat bool) bool {
	if frames == 1 {
		return true
	}
	return repeat && frames >= keyRepeatDelay && (frames-keyRepeatDelay)%keyRepeatEvery == 0
}
