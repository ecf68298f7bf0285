package effect

import (
	"sync"
	"sync/atomic"
	"time"
)

// Token identifies one activation of an effect. It is cancelled when the
// next activation of the same kind begins.
type Token struct {
	id        uint64
	cancelled atomic.Bool
	timer     Timer
}

func (t *Token) ID() uint64 { return t.id }

func (t *Token) Cancelled() bool { return t.cancelled.Load() }

func (t *Token) cancel() {
	if t.cancelled.Swap(true) {
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
}

// Slot holds the single live Token of an effect kind.
type Slot struct {
	mu     sync.Mutex
	cur    *Token
	nextID uint64
}

// Acquire cancels the current token, stopping its timer, and returns a new one.
func (s *Slot) Acquire() *Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acquireLocked()
}

func (s *Slot) acquireLocked() *Token {
	if s.cur != nil {
		s.cur.cancel()
	}
	s.nextID++
	s.cur = &Token{id: s.nextID}
	return s.cur
}

// Schedule acquires a token and arms a timer that runs f after d unless
// the token has been cancelled by then.
func (s *Slot) Schedule(clk Clock, d time.Duration, f func()) *Token {
	tok := s.Acquire()
	s.Arm(tok, clk, d, f)
	return tok
}

// Arm starts the timer of tok. Effects that change visible state call
// Acquire under their own lock, mutate, then Arm; f must re-check
// tok.Cancelled under that same lock, since a timer that already fired
// cannot be stopped.
func (s *Slot) Arm(tok *Token, clk Clock, d time.Duration, f func()) {
	t := clk.AfterFunc(d, func() {
		if tok.Cancelled() {
			return
		}
		f()
	})
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.Cancelled() {
		t.Stop()
		return
	}
	tok.timer = t
}

// Current returns the live token, or nil before the first Acquire.
func (s *Slot) Current() *Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Cancel stops the live token without replacing it.
func (s *Slot) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur != nil {
		s.cur.cancel()
	}
}
