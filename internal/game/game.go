// Package game is the ebiten window frontend: it ticks the simulator once per
// frame and draws the card, its trail and sparks.
package game

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/ncruces/zenity"
	"golang.org/x/image/math/f64"

	"github.com/iburimskiy/cardbounce/internal/asset"
	"github.com/iburimskiy/cardbounce/internal/bounce"
	"github.com/iburimskiy/cardbounce/internal/config"
	"github.com/iburimskiy/cardbounce/internal/control"
	"github.com/iburimskiy/cardbounce/internal/effect"
)

const (
	extrudeDepth = 10 // px of fake card thickness at full tilt
	trailRadius  = 3
	sparkRadius  = 4
)

var (
	background = color.RGBA{R: 10, G: 12, B: 20, A: 255}
	blankCard  = color.RGBA{R: 235, G: 235, B: 235, A: 255}
	sparkWhite = colorful.Color{R: 1, G: 1, B: 0.9}
)

// Options wires a Game to its collaborators.
type Options struct {
	Config config.Config
	Sim    *bounce.Simulator
	Shift  *effect.ColorShift
	Sparks *effect.Sparks
	Chime  *effect.Chime // nil without audio
	Clock  effect.Clock

	// Reloads delivers card image paths to reload, e.g. from asset.Watch.
	Reloads <-chan string

	// Picker asks the user for a card image. An empty path means cancelled.
	Picker func() (string, error)
}

type pickResult struct {
	path string
	err  error
}

type Game struct {
	ctx      context.Context
	cfg      config.Config
	sim      *bounce.Simulator
	shift    *effect.ColorShift
	sparks   *effect.Sparks
	chime    *effect.Chime
	clock    effect.Clock
	steps    control.Steps
	parallax *Parallax
	trail    *trail

	// card texture
	card     *ebiten.Image
	cardPath string
	fallback bool
	loading  <-chan asset.Result
	reloads  <-chan string

	// file dialog
	picker  func() (string, error)
	picked  chan pickResult
	picking bool

	// input
	touchIDs   []ebiten.TouchID
	padIDs     []ebiten.GamepadID
	lastCursor [2]int
	cursorSeen bool

	// state
	width, height int
	paused        bool
	bounces       int
	started       time.Time
	unsubscribe   func()
	lastErr       error
}

// New builds the game and starts loading the configured card image.
func New(ctx context.Context, o Options) *Game {
	if o.Clock == nil {
		o.Clock = effect.RealClock
	}
	if o.Picker == nil {
		o.Picker = pickCard
	}
	b := o.Sim.Boundary()
	g := &Game{
		ctx:      ctx,
		cfg:      o.Config,
		sim:      o.Sim,
		shift:    o.Shift,
		sparks:   o.Sparks,
		chime:    o.Chime,
		clock:    o.Clock,
		steps:    control.Steps{Nudge: config.NudgeStep, Spin: o.Config.SpinStep()},
		parallax: NewParallax(o.Config.Parallax),
		trail:    newTrail(config.TrailSize),
		reloads:  o.Reloads,
		picker:   o.Picker,
		picked:   make(chan pickResult, 1),
		width:    int(b.HalfWidth * 2),
		height:   int(b.HalfHeight * 2),
		started:  o.Clock.Now(),
	}
	g.unsubscribe = g.sim.OnBounce(g.onBounce)
	g.loadCard(o.Config.Card.Image)
	return g
}

// Close detaches the game from the simulator.
func (g *Game) Close() {
	if g.unsubscribe != nil {
		g.unsubscribe()
		g.unsubscribe = nil
	}
}

func (g *Game) onBounce(e bounce.BounceEvent) {
	g.bounces++
	slog.Debug("bounce", "axis", e.Axis, "edge", e.Edge, "tick", e.Tick,
		"speed", bounce.Speed(e.Velocity))
}

func (g *Game) Update() error {
	for _, i := range keyIntents(inpututil.KeyPressDuration) {
		if err := g.applyIntent(i); err != nil {
			return err
		}
	}
	g.pollPointer()
	g.drain()

	if !g.paused {
		st := g.sim.Tick()
		g.trail.push(st.Position)
	}
	g.parallax.Step()
	return nil
}

func (g *Game) applyIntent(i control.Intent) error {
	if control.Apply(g.sim, i, g.steps) {
		if i == control.IntentReset {
			g.trail.reset()
		}
		return nil
	}
	switch i {
	case control.IntentPause:
		g.paused = !g.paused
	case control.IntentOpen:
		g.openPicker()
	case control.IntentMute:
		if g.chime != nil {
			slog.Info("chime", "muted", g.chime.ToggleMute())
		}
	case control.IntentQuit:
		return ebiten.Termination
	}
	return nil
}

// pollPointer feeds the parallax from the first touch, a gamepad right
// stick standing in for device orientation, or the mouse cursor.
func (g *Game) pollPointer() {
	g.touchIDs = ebiten.AppendTouchIDs(g.touchIDs[:0])
	if len(g.touchIDs) > 0 {
		x, y := ebiten.TouchPosition(g.touchIDs[0])
		g.parallax.PointAt(float64(x), float64(y), float64(g.width), float64(g.height))
		return
	}

	g.padIDs = ebiten.AppendGamepadIDs(g.padIDs[:0])
	for _, id := range g.padIDs {
		if !ebiten.IsStandardGamepadLayoutAvailable(id) {
			continue
		}
		gx := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisRightStickHorizontal)
		gy := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisRightStickVertical)
		if math.Abs(gx)+math.Abs(gy) > 0.1 {
			g.parallax.SetOrientation(gy*90, gx*90)
			return
		}
	}

	x, y := ebiten.CursorPosition()
	cur := [2]int{x, y}
	if g.cursorSeen && cur != g.lastCursor {
		g.parallax.PointAt(float64(x), float64(y), float64(g.width), float64(g.height))
	}
	g.lastCursor, g.cursorSeen = cur, true
}

// drain collects results from the file dialog, the watcher and the loader.
func (g *Game) drain() {
	select {
	case r := <-g.picked:
		g.picking = false
		switch {
		case r.err != nil:
			g.lastErr = r.err
		case r.path != "":
			g.loadCard(r.path)
		}
	default:
	}

	select {
	case p, ok := <-g.reloads:
		if !ok {
			g.reloads = nil
			break
		}
		slog.Info("card changed on disk", "path", p)
		g.loadCard(p)
	default:
	}

	if g.loading == nil {
		return
	}
	select {
	case res := <-g.loading:
		g.loading = nil
		g.setCard(res)
	default:
	}
}

func (g *Game) openPicker() {
	if g.picking {
		return
	}
	g.picking = true
	go func() {
		path, err := g.picker()
		g.picked <- pickResult{path: path, err: err}
	}()
}

func pickCard() (string, error) {
	path, err := zenity.SelectFile(
		zenity.Title("Open Card Image"),
		zenity.FileFilters{{
			Name:     "Images",
			Patterns: []string{"*.png", "*.jpg", "*.jpeg", "*.gif", "*.bmp", "*.webp", "*.tif", "*.tiff"},
		}},
	)
	if errors.Is(err, zenity.ErrCanceled) {
		return "", nil
	}
	return path, err
}

func (g *Game) loadCard(path string) {
	g.cardPath = path
	g.loading = asset.LoadAsync(g.ctx, path, int(g.cfg.Card.Width), int(g.cfg.Card.Height), blankCard)
}

func (g *Game) setCard(res asset.Result) {
	if res.Err != nil {
		g.lastErr = res.Err
		slog.Warn("card image unavailable, using placeholder", "path", res.Path, "err", res.Err)
	} else if !res.Fallback {
		slog.Info("card image loaded", "path", res.Path, "format", res.Format)
	}
	img := ebiten.NewImageFromImage(res.Image)
	if res.Fallback && g.cfg.Card.Label != "" {
		ebitenutil.DebugPrintAt(img, g.cfg.Card.Label, 16, 16)
	}
	if g.card != nil {
		g.card.Deallocate()
	}
	g.card = img
	g.fallback = res.Fallback
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(background)

	now := g.clock.Now()
	hue := g.shift.Color(now)
	st := g.sim.State()

	g.drawTrail(screen, hue)
	g.drawCard(screen, st, hue, lightSweep(now.Sub(g.started)))
	g.drawSparks(screen, now)

	ebitenutil.DebugPrintAt(screen, g.status(st, now), 12, 12)
}

func (g *Game) drawTrail(screen *ebiten.Image, hue colorful.Color) {
	pts := g.trail.snapshot(config.TrailSize)
	for i, p := range pts {
		a := 0.35 * float64(i+1) / float64(len(pts))
		x, y := toScreen(p, g.width, g.height)
		vector.DrawFilledCircle(screen, float32(x), float32(y), trailRadius, withAlpha(hue, a), true)
	}
}

func (g *Game) drawCard(screen *ebiten.Image, st bounce.State, hue colorful.Color, light float64) {
	if g.card == nil {
		return
	}
	tilt := g.parallax.Tilt()
	tw, th := g.card.Bounds().Dx(), g.card.Bounds().Dy()
	geo := cardTransform(st.Position, st.HalfExtents, g.cfg.RotationRadians(st.Rotation), tilt, tw, th, g.width, g.height)

	// back face, offset opposite the tilt
	back := &ebiten.DrawImageOptions{GeoM: geo, Filter: ebiten.FilterLinear}
	back.GeoM.Translate(extrudeOffset(tilt))
	back.ColorScale.Scale(0.25, 0.25, 0.3, 1)
	screen.DrawImage(g.card, back)

	op := &ebiten.DrawImageOptions{GeoM: geo, Filter: ebiten.FilterLinear}
	r, gr, b := tint(hue)
	op.ColorScale.Scale(r*float32(light), gr*float32(light), b*float32(light), 1)
	screen.DrawImage(g.card, op)
}

func (g *Game) drawSparks(screen *ebiten.Image, now time.Time) {
	a := g.sparks.Fade(now)
	if a <= 0 {
		return
	}
	c := withAlpha(sparkWhite, a)
	for _, p := range g.sparks.Points() {
		x, y := toScreen(p, g.width, g.height)
		vector.DrawFilledCircle(screen, float32(x), float32(y), sparkRadius, c, true)
	}
}

func (g *Game) status(st bounce.State, now time.Time) string {
	s := fmt.Sprintf("pos %+5.0f %+5.0f  speed %.2f  bounces %d  up %s",
		st.Position[0], st.Position[1], bounce.Speed(st.Velocity), g.bounces,
		formatDuration(now.Sub(g.started)))
	switch {
	case g.chime == nil || !g.chime.Enabled():
		s += "  [no audio]"
	case g.chime.Muted():
		s += "  [muted]"
	}
	if g.paused {
		s += "  [paused]"
	}
	if g.fallback {
		s += "  [placeholder card]"
	}
	if g.lastErr != nil {
		s += "\nError: " + g.lastErr.Error()
	}
	return s
}

// Layout follows the window size and resizes the simulation boundary to it.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.width || outsideHeight != g.height {
		if err := g.sim.SetBoundary(float64(outsideWidth)/2, float64(outsideHeight)/2); err != nil {
			// minimised windows report 0x0; keep the last good size
			slog.Debug("ignoring layout", "width", outsideWidth, "height", outsideHeight, "err", err)
		} else {
			g.width, g.height = outsideWidth, outsideHeight
		}
	}
	return g.width, g.height
}

// toScreen maps simulation coordinates (origin at the centre) to pixels.
func toScreen(p f64.Vec2, w, h int) (float64, float64) {
	return float64(w)/2 + p[0], float64(h)/2 + p[1]
}

// cardTransform places a tw x th texture as the card: sized to the body,
// foreshortened by the tilt, rotated and centred on the body.
func cardTransform(pos, half f64.Vec2, rot float64, tilt f64.Vec2, tw, th, w, h int) ebiten.GeoM {
	var m ebiten.GeoM
	m.Translate(-float64(tw)/2, -float64(th)/2)
	m.Scale(
		2*half[0]/float64(tw)*math.Cos(deg2rad(tilt[1])),
		2*half[1]/float64(th)*math.Cos(deg2rad(tilt[0])),
	)
	m.Rotate(rot)
	x, y := toScreen(pos, w, h)
	m.Translate(x, y)
	return m
}

func extrudeOffset(tilt f64.Vec2) (float64, float64) {
	return -math.Sin(deg2rad(tilt[1])) * extrudeDepth, math.Sin(deg2rad(tilt[0])) * extrudeDepth
}
