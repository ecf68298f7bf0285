package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/iburimskiy/cardbounce/internal/app"
	"github.com/iburimskiy/cardbounce/internal/asset"
	"github.com/iburimskiy/cardbounce/internal/bounce"
	"github.com/iburimskiy/cardbounce/internal/config"
	"github.com/iburimskiy/cardbounce/internal/game"
	"github.com/iburimskiy/cardbounce/internal/logx"
)

func main() {
	flags := app.RegisterFlags(flag.CommandLine)
	flag.Parse()
	logx.Setup(os.Stderr, flags.Level())

	cfg, err := app.LoadConfig(flags)
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(2)
	}
	if flags.DumpConfig {
		data, err := config.Encode(cfg)
		if err != nil {
			slog.Error("config", "err", err)
			os.Exit(1)
		}
		os.Stdout.Write(data)
		return
	}

	kit, err := app.Build(cfg, bounce.Boundary{
		HalfWidth:  float64(cfg.Window.Width) / 2,
		HalfHeight: float64(cfg.Window.Height) / 2,
	}, flags.Mute)
	if err != nil {
		slog.Error("simulator", "err", err)
		os.Exit(2)
	}
	defer kit.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var reloads <-chan string
	if cfg.Card.Watch && cfg.Card.Image != "" {
		reloads, err = asset.Watch(ctx, cfg.Card.Image)
		logx.Warn("card watcher disabled", err)
	}

	g := game.New(ctx, game.Options{
		Config:  cfg,
		Sim:     kit.Sim,
		Shift:   kit.Shift,
		Sparks:  kit.Sparks,
		Chime:   kit.Chime,
		Clock:   kit.Clock,
		Reloads: reloads,
	})
	defer g.Close()

	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowTitle(cfg.Window.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	slog.Info("starting", "preset", flags.Preset, "mode", kit.Sim.Config().Mode, "card", cfg.Card.Image)
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		slog.Error("game", "err", err)
		os.Exit(1)
	}
}
