package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/image/math/f64"

	"github.com/iburimskiy/cardbounce/internal/bounce"
)

const (
	WindowWidth  = 1280
	WindowHeight = 720

	// Card face in pixels, matching the printed card artwork.
	CardWidth  = 512
	CardHeight = 288

	TrailSize = 48

	// Keyboard control
	NudgeStep = 10
)

// Config is everything the frontends read at start-up.
type Config struct {
	Window   Window   `toml:"window"`
	Card     Card     `toml:"card"`
	Physics  Physics  `toml:"physics"`
	Effects  Effects  `toml:"effects"`
	Parallax Parallax `toml:"parallax"`
	Terminal Terminal `toml:"terminal"`
}

type Window struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
}

type Card struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`

	// Image is the card face. An empty or unreadable path falls back to a
	// solid face.
	Image string `toml:"image"`

	// Watch reloads Image when the file changes on disk.
	Watch bool `toml:"watch"`

	// Label is drawn on the solid face and in the terminal.
	Label string `toml:"label"`
}

type Physics struct {
	Damping       float64   `toml:"damping"`
	MinSpeed      float64   `toml:"min_speed"`
	BaseSpeed     float64   `toml:"base_speed"`
	InitialAngles []float64 `toml:"initial_angles"`
	RotationScale float64   `toml:"rotation_scale"`

	// RotationDegrees marks RotationScale as producing degrees, not radians.
	RotationDegrees bool   `toml:"rotation_degrees"`
	CollisionMode   string `toml:"collision_mode"`
}

type Effects struct {
	SparkCount  int      `toml:"spark_count"`
	SparkSpread float64  `toml:"spark_spread"`
	SparkLife   Duration `toml:"spark_life"`

	ColorShiftDuration Duration `toml:"color_shift_duration"`
	HueStep            float64  `toml:"hue_step"`
	HueJitter          float64  `toml:"hue_jitter"`

	Chime     bool    `toml:"chime"`
	ChimeFreq float64 `toml:"chime_freq"`
}

// Duration is a time.Duration written as "600ms" in TOML.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

type Parallax struct {
	MaxTilt   float64 `toml:"max_tilt"`   // degrees at the window edge
	GyroScale float64 `toml:"gyro_scale"` // degrees of tilt per degree of device orientation
	Lerp      float64 `toml:"lerp"`
}

type Terminal struct {
	// CellWidth and CellHeight map terminal cells to simulation pixels.
	CellWidth  float64 `toml:"cell_width"`
	CellHeight float64 `toml:"cell_height"`
	FrameRate  int     `toml:"frame_rate"`
	LogFile    string  `toml:"log_file"`
}

// Default returns the extruded-card configuration.
func Default() Config {
	return Config{
		Window: Window{
			Width:  WindowWidth,
			Height: WindowHeight,
			Title:  "Business Card - arrows: nudge, Home: reset, O: open card, M: mute, Esc/Q: quit",
		},
		Card: Card{
			Width:  CardWidth,
			Height: CardHeight,
			Label:  "BUSINESS CARD",
		},
		Physics: Physics{
			Damping:       0.95,
			MinSpeed:      2,
			BaseSpeed:     4,
			InitialAngles: []float64{0, 60, 120, 180, 240, 300},
			RotationScale: 0.01,
			CollisionMode: bounce.ModeIndependentAxis.String(),
		},
		Effects: Effects{
			SparkCount:         6,
			SparkSpread:        40,
			SparkLife:          Duration(600 * time.Millisecond),
			ColorShiftDuration: Duration(400 * time.Millisecond),
			HueStep:            0.1,
			HueJitter:          0.2,
			Chime:              true,
			ChimeFreq:          880,
		},
		Parallax: Parallax{
			MaxTilt:   30,
			GyroScale: 0.25,
			Lerp:      0.05,
		},
		Terminal: Terminal{
			CellWidth:  8,
			CellHeight: 16,
			FrameRate:  60,
			LogFile:    "logs/cardbounce-tty.log",
		},
	}
}

var presets = map[string]func(*Config){
	// extruded WebGL card
	"dvd": func(*Config) {},
	// DOM card: four fixed directions, slower, rotation in degrees
	"dom": func(c *Config) {
		c.Physics.BaseSpeed = 2
		c.Physics.InitialAngles = []float64{300, 60, 120, 210}
		c.Physics.RotationScale = 1
		c.Physics.RotationDegrees = true
	},
	// no speed loss on bounce
	"elastic": func(c *Config) {
		c.Physics.Damping = 1
		c.Physics.InitialAngles = []float64{45, 135, 225, 315}
	},
	// any launch direction, bounces always point back inward
	"drift": func(c *Config) {
		c.Physics.InitialAngles = nil
		c.Physics.CollisionMode = bounce.ModeClampReflect.String()
	},
}

// Presets returns the preset names in sorted order.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset returns Default with the named variant applied.
func Preset(name string) (Config, error) {
	apply, ok := presets[strings.ToLower(name)]
	if !ok {
		return Config{}, fmt.Errorf("unknown preset %q (have %s)", name, strings.Join(Presets(), ", "))
	}
	c := Default()
	apply(&c)
	return c, nil
}

// Load overlays the TOML file at path onto base. A missing file is not an
// error and returns base unchanged.
func Load(path string, base Config) (Config, error) {
	if path == "" {
		return base, nil
	}
	p, err := homedir.Expand(path)
	if err != nil {
		return base, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return base, nil
	}
	if err != nil {
		return base, err
	}
	return Decode(data, base)
}

// Decode overlays TOML data onto base. Keys absent from data keep base values.
func Decode(data []byte, base Config) (Config, error) {
	c := base
	if err := toml.Unmarshal(data, &c); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return base, fmt.Errorf("config line %d column %d: %w", row, col, err)
		}
		return base, fmt.Errorf("config: %w", err)
	}
	return c, nil
}

// Encode renders c as TOML.
func Encode(c Config) ([]byte, error) {
	return toml.Marshal(c)
}

// ExpandPaths resolves ~ in the file paths of c.
func (c *Config) ExpandPaths() error {
	var err error
	if c.Card.Image, err = homedir.Expand(c.Card.Image); err != nil {
		return err
	}
	c.Terminal.LogFile, err = homedir.Expand(c.Terminal.LogFile)
	return err
}

// Bounce converts the physics section into a simulator configuration.
func (c Config) Bounce() (bounce.Config, error) {
	mode, err := bounce.ParseMode(c.Physics.CollisionMode)
	if err != nil {
		return bounce.Config{}, err
	}
	return bounce.Config{
		Damping:       c.Physics.Damping,
		MinSpeed:      c.Physics.MinSpeed,
		BaseSpeed:     c.Physics.BaseSpeed,
		InitialAngles: c.Physics.InitialAngles,
		RotationScale: c.Physics.RotationScale,
		Mode:          mode,
	}, nil
}

// HalfExtents returns the card half-size.
func (c Config) HalfExtents() f64.Vec2 {
	return f64.Vec2{c.Card.Width / 2, c.Card.Height / 2}
}

// RotationRadians converts accumulated simulator rotation to radians.
func (c Config) RotationRadians(rot float64) float64 {
	if c.Physics.RotationDegrees {
		return rot * math.Pi / 180
	}
	return rot
}

// SpinStep is the PageUp/PageDown rotation in simulator units (half a turn).
func (c Config) SpinStep() float64 {
	if c.Physics.RotationDegrees {
		return 180
	}
	return math.Pi
}

// Validate checks the whole configuration. Physics errors wrap
// *bounce.ConfigError.
func (c Config) Validate() error {
	bc, err := c.Bounce()
	if err != nil {
		return fmt.Errorf("physics: %w", err)
	}
	if err := bc.Validate(); err != nil {
		return fmt.Errorf("physics: %w", err)
	}
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("window: size %dx%d must be positive", c.Window.Width, c.Window.Height)
	case !(c.Card.Width > 0) || !(c.Card.Height > 0):
		return fmt.Errorf("card: size %vx%v must be positive", c.Card.Width, c.Card.Height)
	case c.Effects.SparkCount < 0:
		return fmt.Errorf("effects: spark_count %d must not be negative", c.Effects.SparkCount)
	case c.Effects.SparkLife < 0 || c.Effects.ColorShiftDuration < 0:
		return errors.New("effects: durations must not be negative")
	case c.Effects.ChimeFreq < 0:
		return fmt.Errorf("effects: chime_freq %v must not be negative", c.Effects.ChimeFreq)
	case !(c.Parallax.Lerp >= 0 && c.Parallax.Lerp <= 1):
		return fmt.Errorf("parallax: lerp %v must be in [0, 1]", c.Parallax.Lerp)
	case !(c.Terminal.CellWidth > 0) || !(c.Terminal.CellHeight > 0):
		return fmt.Errorf("terminal: cell size %vx%v must be positive", c.Terminal.CellWidth, c.Terminal.CellHeight)
	case c.Terminal.FrameRate <= 0:
		return fmt.Errorf("terminal: frame_rate %d must be positive", c.Terminal.FrameRate)
	}
	return nil
}
