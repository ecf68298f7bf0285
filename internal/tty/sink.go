// Package tty draws the bouncing card in a terminal with tcell. The
// simulation runs in pixel units; each cell stands for CellWidth x
// CellHeight pixels.
package tty

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/iburimskiy/cardbounce/internal/bounce"
	"github.com/iburimskiy/cardbounce/internal/config"
	"github.com/iburimskiy/cardbounce/internal/control"
	"github.com/iburimskiy/cardbounce/internal/effect"
)

var (
	styleBase   = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite)
	styleStatus = tcell.StyleDefault.Background(tcell.ColorDarkSlateGray).Foreground(tcell.ColorWhite)
	styleSpark  = styleBase.Foreground(tcell.ColorLightYellow).Bold(true)
)

type Options struct {
	Config config.Config
	Sim    *bounce.Simulator
	Shift  *effect.ColorShift
	Sparks *effect.Sparks
	Chime  *effect.Chime // nil without audio
	Clock  effect.Clock
}

// Sink owns the screen while it runs. It is driven from a single goroutine.
type Sink struct {
	screen tcell.Screen
	cfg    config.Config
	sim    *bounce.Simulator
	shift  *effect.ColorShift
	sparks *effect.Sparks
	chime  *effect.Chime
	clock  effect.Clock
	steps  control.Steps

	cols, rows  int
	paused      bool
	bounces     int
	unsubscribe func()
}

// New attaches a sink to an initialised screen and fits the simulator
// boundary to it.
func New(screen tcell.Screen, o Options) *Sink {
	if o.Clock == nil {
		o.Clock = effect.RealClock
	}
	s := &Sink{
		screen: screen,
		cfg:    o.Config,
		sim:    o.Sim,
		shift:  o.Shift,
		sparks: o.Sparks,
		chime:  o.Chime,
		clock:  o.Clock,
		steps:  control.Steps{Nudge: config.NudgeStep, Spin: o.Config.SpinStep()},
	}
	s.unsubscribe = s.sim.OnBounce(func(e bounce.BounceEvent) {
		s.bounces++
		slog.Debug("bounce", "axis", e.Axis, "edge", e.Edge, "tick", e.Tick)
	})
	cols, rows := screen.Size()
	s.Resize(cols, rows)
	return s
}

// Close detaches the sink from the simulator. The caller finalises the screen.
func (s *Sink) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// Resize fits the boundary to cols x rows, keeping the last row for the
// status line. Sizes with no room for a card area are ignored.
func (s *Sink) Resize(cols, rows int) {
	hw := float64(cols) * s.cfg.Terminal.CellWidth / 2
	hh := float64(rows-1) * s.cfg.Terminal.CellHeight / 2
	if err := s.sim.SetBoundary(hw, hh); err != nil {
		slog.Debug("ignoring resize", "cols", cols, "rows", rows, "err", err)
		return
	}
	s.cols, s.rows = cols, rows
}

// Run ticks at the configured frame rate and handles input until the user
// quits, the screen closes or ctx is done.
func (s *Sink) Run(ctx context.Context) error {
	fps := max(1, s.cfg.Terminal.FrameRate)
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	done := make(chan struct{})
	defer close(done)
	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := s.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	s.Draw()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if s.HandleEvent(ev) {
				return nil
			}
		case <-ticker.C:
			s.Step()
		}
	}
}

// Step advances one frame unless paused, then redraws.
func (s *Sink) Step() {
	if !s.paused {
		s.sim.Tick()
	}
	s.Draw()
}

// HandleEvent reacts to input and resizes. It reports whether to quit.
func (s *Sink) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		i := keyIntent(ev)
		if control.Apply(s.sim, i, s.steps) {
			return false
		}
		switch i {
		case control.IntentPause:
			s.paused = !s.paused
		case control.IntentMute:
			if s.chime != nil {
				slog.Info("chime", "muted", s.chime.ToggleMute())
			}
		case control.IntentQuit:
			return true
		}
	case *tcell.EventResize:
		s.Resize(ev.Size())
		s.screen.Sync()
	}
	return false
}

func keyIntent(ev *tcell.EventKey) control.Intent {
	if ev.Modifiers()&tcell.ModShift != 0 {
		switch ev.Key() {
		case tcell.KeyLeft:
			return control.IntentPushLeft
		case tcell.KeyRight:
			return control.IntentPushRight
		case tcell.KeyUp:
			return control.IntentPushUp
		case tcell.KeyDown:
			return control.IntentPushDown
		}
	}
	switch ev.Key() {
	case tcell.KeyLeft:
		return control.IntentNudgeLeft
	case tcell.KeyRight:
		return control.IntentNudgeRight
	case tcell.KeyUp:
		return control.IntentNudgeUp
	case tcell.KeyDown:
		return control.IntentNudgeDown
	case tcell.KeyHome:
		return control.IntentReset
	case tcell.KeyPgUp:
		return control.IntentSpinForward
	case tcell.KeyPgDn:
		return control.IntentSpinBackward
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return control.IntentQuit
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'h':
			return control.IntentNudgeLeft
		case 'l':
			return control.IntentNudgeRight
		case 'k':
			return control.IntentNudgeUp
		case 'j':
			return control.IntentNudgeDown
		case 'H':
			return control.IntentPushLeft
		case 'L':
			return control.IntentPushRight
		case 'K':
			return control.IntentPushUp
		case 'J':
			return control.IntentPushDown
		case 'r':
			return control.IntentReset
		case ' ':
			return control.IntentPause
		case 'm', 'M':
			return control.IntentMute
		case 'q', 'Q':
			return control.IntentQuit
		}
	}
	return control.IntentNone
}

// Draw renders the card, the sparks and the status line.
func (s *Sink) Draw() {
	s.screen.SetStyle(styleBase)
	s.screen.Clear()

	now := s.clock.Now()
	st := s.sim.State()
	s.drawCard(st, s.shift.Color(now))
	s.drawSparks()
	s.drawStatus(st)
	s.screen.Show()
}

// cardRect returns the cells covered by the card, x1 and y1 exclusive.
func (s *Sink) cardRect(st bounce.State) (x0, y0, x1, y1 int) {
	cw, ch := s.cfg.Terminal.CellWidth, s.cfg.Terminal.CellHeight
	b := s.sim.Boundary()
	x0 = int(math.Round((b.HalfWidth + st.Position[0] - st.HalfExtents[0]) / cw))
	y0 = int(math.Round((b.HalfHeight + st.Position[1] - st.HalfExtents[1]) / ch))
	x1 = x0 + max(1, int(math.Round(2*st.HalfExtents[0]/cw)))
	y1 = y0 + max(1, int(math.Round(2*st.HalfExtents[1]/ch)))
	return x0, y0, min(x1, s.cols), min(y1, s.rows-1)
}

// cell maps a simulation point to a cell.
func (s *Sink) cell(x, y float64) (int, int) {
	b := s.sim.Boundary()
	return int(math.Floor((b.HalfWidth + x) / s.cfg.Terminal.CellWidth)),
		int(math.Floor((b.HalfHeight + y) / s.cfg.Terminal.CellHeight))
}

func (s *Sink) drawCard(st bounce.State, c colorful.Color) {
	r, g, b := c.Clamped().RGB255()
	face := styleBase.Background(tcell.NewRGBColor(int32(r), int32(g), int32(b))).Foreground(tcell.ColorBlack)

	x0, y0, x1, y1 := s.cardRect(st)
	for y := max(0, y0); y < y1; y++ {
		for x := max(0, x0); x < x1; x++ {
			s.screen.SetContent(x, y, ' ', nil, face)
		}
	}

	label := []rune(s.cfg.Card.Label)
	if len(label) > x1-x0 {
		label = label[:max(0, x1-x0)]
	}
	ly := (y0 + y1) / 2
	lx := x0 + (x1-x0-len(label))/2
	for i, ch := range label {
		if x := lx + i; x >= 0 && x < s.cols && ly >= 0 && ly < s.rows-1 {
			s.screen.SetContent(x, ly, ch, nil, face.Bold(true))
		}
	}
}

func (s *Sink) drawSparks() {
	if s.sparks.Opacity() <= 0 {
		return
	}
	for _, p := range s.sparks.Points() {
		x, y := s.cell(p[0], p[1])
		if x < 0 || x >= s.cols || y < 0 || y >= s.rows-1 {
			continue
		}
		_, _, style, _ := s.screen.GetContent(x, y)
		_, bg, _ := style.Decompose()
		s.screen.SetContent(x, y, '*', nil, styleSpark.Background(bg))
	}
}

func (s *Sink) statusLine(st bounce.State) string {
	line := fmt.Sprintf(" x %+6.0f  y %+6.0f  speed %5.2f  spin %+7.2f  bounces %d",
		st.Position[0], st.Position[1], bounce.Speed(st.Velocity),
		s.cfg.RotationRadians(st.Rotation)*180/math.Pi, s.bounces)
	if s.paused {
		line += "  [paused]"
	}
	if s.chime != nil && s.chime.Enabled() && s.chime.Muted() {
		line += "  [muted]"
	}
	return line + "  | arrows/hjkl nudge  Home reset  PgUp/PgDn spin  Space pause  m mute  q quit"
}

func (s *Sink) drawStatus(st bounce.State) {
	y := s.rows - 1
	line := []rune(s.statusLine(st))
	for x := 0; x < s.cols; x++ {
		r := ' '
		if x < len(line) {
			r = line[x]
		}
		s.screen.SetContent(x, y, r, nil, styleStatus)
	}
}
