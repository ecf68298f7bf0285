package game

import (
	"sync"

	"golang.org/x/image/math/f64"
)

// trail records the last N card centres in a ring buffer so Draw can render
// a fading motion trail behind the card.
type trail struct {
	buffer    []f64.Vec2
	nextIndex int
	count     int
	mu        sync.RWMutex
}

func newTrail(ringSize int) *trail {
	return &trail{
		buffer: make([]f64.Vec2, ringSize),
	}
}

func (t *trail) push(p f64.Vec2) {
	if len(t.buffer) == 0 {
		return
	}
	t.mu.Lock()
	t.buffer[t.nextIndex] = p
	t.nextIndex++
	if t.nextIndex >= len(t.buffer) {
		t.nextIndex = 0
	}
	if t.count < len(t.buffer) {
		t.count++
	}
	t.mu.Unlock()
}

// reset forgets every recorded position, e.g. after a jump.
func (t *trail) reset() {
	t.mu.Lock()
	t.nextIndex = 0
	t.count = 0
	t.mu.Unlock()
}

// snapshot returns up to the last n positions, most recent last.
func (t *trail) snapshot(n int) []f64.Vec2 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if n > t.count {
		n = t.count
	}
	out := make([]f64.Vec2, n)
	idx := t.nextIndex - 1
	for i := n - 1; i >= 0; i-- {
		if idx < 0 {
			idx = len(t.buffer) - 1
		}
		out[i] = t.buffer[idx]
		idx--
	}
	return out
}
