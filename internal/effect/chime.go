package effect

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"

	"github.com/iburimskiy/cardbounce/internal/bounce"
)

const (
	ChimeSampleRate = beep.SampleRate(44100)
	chimeLength     = 120 * time.Millisecond
	chimeDecay      = 30.0 // 1/s
	chimeGain       = 0.25
)

// Chime plays a short sine blip per bounce. Horizontal bounces ring at the
// base frequency and vertical ones a fifth higher. A new blip silences the
// one still playing.
type Chime struct {
	sr    beep.SampleRate
	freq  float64
	play  func(beep.Streamer)
	lock  sync.Locker
	muted atomic.Bool

	mu   sync.Mutex
	ctrl *beep.Ctrl
}

// NewChime builds a chime that hands streamers to play. Changes to the
// previous streamer are made while holding lock.
func NewChime(sr beep.SampleRate, freq float64, play func(beep.Streamer), lock sync.Locker) *Chime {
	return &Chime{sr: sr, freq: freq, play: play, lock: lock}
}

var (
	speakerOnce sync.Once
	speakerErr  error
)

type speakerLock struct{}

func (speakerLock) Lock()   { speaker.Lock() }
func (speakerLock) Unlock() { speaker.Unlock() }

// NewSpeakerChime initialises the speaker once per process and returns a
// chime playing on it. On failure the returned chime is silent and the
// error says why.
func NewSpeakerChime(freq float64) (*Chime, error) {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(ChimeSampleRate, ChimeSampleRate.N(time.Second/20))
	})
	if speakerErr != nil {
		return NewChime(ChimeSampleRate, freq, nil, &sync.Mutex{}), speakerErr
	}
	return NewChime(ChimeSampleRate, freq, func(s beep.Streamer) { speaker.Play(s) }, speakerLock{}), nil
}

// Enabled reports whether the chime has somewhere to play.
func (c *Chime) Enabled() bool { return c.play != nil && c.freq > 0 }

func (c *Chime) SetMuted(m bool) { c.muted.Store(m) }

func (c *Chime) Muted() bool { return c.muted.Load() }

// ToggleMute flips the mute state and returns the new one.
func (c *Chime) ToggleMute() bool {
	for {
		old := c.muted.Load()
		if c.muted.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Ring plays the blip for a bounce on a.
func (c *Chime) Ring(a bounce.Axis) {
	if !c.Enabled() || c.Muted() {
		return
	}
	f := c.freq
	if a == bounce.AxisY {
		f *= 1.5
	}
	ctrl := &beep.Ctrl{Streamer: blip(c.sr, f, chimeLength)}

	c.mu.Lock()
	if c.ctrl != nil {
		c.lock.Lock()
		c.ctrl.Streamer = nil
		c.lock.Unlock()
	}
	c.ctrl = ctrl
	c.mu.Unlock()

	c.play(ctrl)
}

// OnBounce is a bounce.BounceHandler.
func (c *Chime) OnBounce(e bounce.BounceEvent) { c.Ring(e.Axis) }

// blip is a decaying sine of length d.
func blip(sr beep.SampleRate, freq float64, d time.Duration) beep.Streamer {
	n := sr.N(d)
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= n {
			return 0, false
		}
		i := 0
		for ; i < len(samples) && pos < n; i++ {
			t := float64(pos) / float64(sr)
			v := math.Sin(2*math.Pi*freq*t) * math.Exp(-t*chimeDecay) * chimeGain
			samples[i] = [2]float64{v, v}
			pos++
		}
		return i, true
	})
}
