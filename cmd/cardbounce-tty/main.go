// Command cardbounce-tty bounces the business card around a terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gdamore/tcell/v2"

	"github.com/iburimskiy/cardbounce/internal/app"
	"github.com/iburimskiy/cardbounce/internal/bounce"
	"github.com/iburimskiy/cardbounce/internal/config"
	"github.com/iburimskiy/cardbounce/internal/logx"
	"github.com/iburimskiy/cardbounce/internal/tty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "cardbounce-tty:", err)
		os.Exit(1)
	}
}

func run() error {
	flags := app.RegisterFlags(flag.CommandLine)
	flag.Parse()

	cfg, err := app.LoadConfig(flags)
	if err != nil {
		return err
	}
	if flags.DumpConfig {
		data, err := config.Encode(cfg)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	// the screen owns stdout, so logs go to a file
	_, logFile, err := logx.SetupFile(cfg.Terminal.LogFile, flags.Level())
	if err != nil {
		return err
	}
	defer logFile.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	// placeholder boundary, replaced by the screen size in tty.New
	kit, err := app.Build(cfg, bounce.Boundary{HalfWidth: 1, HalfHeight: 1}, flags.Mute)
	if err != nil {
		return err
	}
	defer kit.Close()

	sink := tty.New(screen, tty.Options{
		Config: cfg,
		Sim:    kit.Sim,
		Shift:  kit.Shift,
		Sparks: kit.Sparks,
		Chime:  kit.Chime,
		Clock:  kit.Clock,
	})
	defer sink.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	slog.Info("starting", "preset", flags.Preset, "mode", kit.Sim.Config().Mode)
	if err := sink.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
