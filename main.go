package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventsync/src-server/handler"
	"eventsync/src-server/ui"
	"eventsync/src-server/utils"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v3"
)

var logLevel = new(slog.LevelVar)

func init() {
	if err := godotenv.Load(); err != nil {
		slog.Debug(err.Error())
	}
	logLevel.Set(slog.LevelInfo)
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		if err := logLevel.UnmarshalText([]byte(level)); err != nil {
			slog.Warn("invalid LOG_LEVEL", "value", level, "error", err)
		}
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.RFC1123Z,
		}),
	))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	state := handler.NewState(func(ctx context.Context) (*utils.AppState, error) {
		cfg, err := utils.NewConfig()
		if err != nil {
			return nil, err
		}
		return utils.NewAppState(ctx, cfg)
	})

	app := &cli.Command{
		Name:  "eventsync",
		Usage: "Keep a local event collection and a Discord guild's scheduled events in sync",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				logLevel.Set(slog.LevelDebug)
			}
			if cmd.Bool("no-color") {
				ui.DisableColors()
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			handler.Sync(state),
			handler.Add(state),
			handler.List(state),
			handler.Import(state),
			handler.Export(state),
			handler.History(state),
		},
	}

	err := app.Run(ctx, os.Args)
	if closeErr := state.Close(); closeErr != nil {
		slog.Error("can't close app state", "error", closeErr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
