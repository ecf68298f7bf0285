// Package app holds the start-up code shared by the window and terminal
// frontends: flags, configuration and wiring the effects to the simulator.
package app

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/iburimskiy/cardbounce/internal/bounce"
	"github.com/iburimskiy/cardbounce/internal/config"
	"github.com/iburimskiy/cardbounce/internal/effect"
	"github.com/iburimskiy/cardbounce/internal/logx"
)

// DefaultConfigPath is read when -config is not given. It may be absent.
const DefaultConfigPath = "~/.config/cardbounce/config.toml"

type Flags struct {
	Config     string
	Preset     string
	Card       string
	Mute       bool
	DumpConfig bool

	Verbose     bool
	VeryVerbose bool
	Quiet       bool
}

// RegisterFlags defines the common flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", DefaultConfigPath, "TOML configuration `file`")
	fs.StringVar(&f.Preset, "preset", "dvd", "physics preset: "+strings.Join(config.Presets(), ", "))
	fs.StringVar(&f.Card, "card", "", "card face image `file` (overrides [card] image)")
	fs.BoolVar(&f.Mute, "mute", false, "start with the bounce chime muted")
	fs.BoolVar(&f.DumpConfig, "dump-config", false, "print the effective configuration as TOML and exit")
	fs.BoolVar(&f.Verbose, "v", false, "log info messages")
	fs.BoolVar(&f.VeryVerbose, "vv", false, "log debug messages, including every bounce")
	fs.BoolVar(&f.Quiet, "q", false, "only log errors")
	return f
}

// Level is the log level the verbosity flags ask for. -vv beats -v,
// which beats -q.
func (f *Flags) Level() slog.Level {
	n := 0
	switch {
	case f.VeryVerbose:
		n = 2
	case f.Verbose:
		n = 1
	case f.Quiet:
		n = -1
	}
	return logx.Verbosity(n)
}

// LoadConfig applies the preset, the config file and the -card flag, in
// that order, and validates the result.
func LoadConfig(f *Flags) (config.Config, error) {
	base, err := config.Preset(f.Preset)
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(f.Config, base)
	if err != nil {
		return config.Config{}, err
	}
	if f.Card != "" {
		cfg.Card.Image = f.Card
	}
	if err := cfg.ExpandPaths(); err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Kit is a simulator with its effects attached.
type Kit struct {
	Sim    *bounce.Simulator
	Shift  *effect.ColorShift
	Sparks *effect.Sparks
	Chime  *effect.Chime // nil when the chime is off or audio failed
	Clock  effect.Clock

	unsubscribe []func()
}

// Build creates the simulator for boundary and subscribes the effects.
// Audio problems are logged and leave Chime nil.
func Build(cfg config.Config, boundary bounce.Boundary, mute bool, opts ...bounce.Option) (*Kit, error) {
	bc, err := cfg.Bounce()
	if err != nil {
		return nil, err
	}
	sim, err := bounce.New(bc, cfg.HalfExtents(), boundary, opts...)
	if err != nil {
		return nil, err
	}

	k := &Kit{Sim: sim, Clock: effect.RealClock}
	e := cfg.Effects
	k.Shift = effect.NewColorShift(k.Clock, e.ColorShiftDuration.Std(), e.HueStep, e.HueJitter, rand.Float64, rand.Float64())
	k.Sparks = effect.NewSparks(k.Clock, e.SparkCount, e.SparkSpread, e.SparkLife.Std(), rand.Float64)
	k.unsubscribe = append(k.unsubscribe,
		sim.OnBounce(k.Shift.OnBounce),
		sim.OnBounce(k.Sparks.OnBounce),
	)

	if e.Chime && e.ChimeFreq > 0 {
		chime, err := effect.NewSpeakerChime(e.ChimeFreq)
		if err != nil {
			slog.Warn("audio unavailable, bounce chime disabled", "err", err)
		} else {
			chime.SetMuted(mute)
			k.Chime = chime
			k.unsubscribe = append(k.unsubscribe, sim.OnBounce(chime.OnBounce))
		}
	}
	return k, nil
}

// Close detaches the effects from the simulator.
func (k *Kit) Close() {
	for _, u := range k.unsubscribe {
		u()
	}
	k.unsubscribe = nil
}
