package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"eventsync/src-server/decision"
	"eventsync/src-server/model"
	"eventsync/src-server/scheduler"
	"eventsync/src-server/syncer"

	"github.com/urfave/cli/v3"
)

func Sync(state *State) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Reconcile local events with the guild's scheduled events",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "decision",
				Aliases: []string{"D"},
				Usage:   "prompt, keep_local, keep_discord or skip (default: DEFAULT_DECISION, then prompt)",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"d"},
				Usage:   "Detect and report conflicts without applying anything",
			},
			&cli.DurationFlag{
				Name:  "every",
				Usage: "Keep running, syncing once per interval (needs a non-prompt decision)",
			},
		},
		Action: syncHandler(state),
	}
}

func syncHandler(state *State) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		as, err := state.Get(ctx)
		if err != nil {
			return err
		}

		mode := cmd.String("decision")
		if mode == "" {
			mode = as.Config.GetDefaultDecision()
		}
		interval := cmd.Duration("every")
		if interval > 0 && (mode == "" || mode == decision.ModePrompt) {
			return fmt.Errorf("sync: --every needs --decision keep_local, keep_discord or skip")
		}
		out := cmd.Root().Writer
		decider, err := decision.FromMode(mode, os.Stdin, out)
		if err != nil {
			return err
		}

		client, err := as.Discord()
		if err != nil {
			return err
		}

		run := func(ctx context.Context) error {
			report, err := syncer.New(client, as.Store, decider, as.Transformer, as.Config.GetDiscordGuildID()).
				WithDryRun(cmd.Bool("dry-run")).
				WithRunRecorder(as.Store).
				WithMetrics(as.Metrics).
				Run(ctx)
			if err != nil {
				return fmt.Errorf("sync: %w", authHint(err))
			}
			report.Render(out)
			if failed := report.Failed(); len(failed) > 0 {
				slog.Warn("sync: some conflicts were not applied, re-run to retry them", "failed", len(failed))
				for _, res := range failed {
					if hinted := authHint(res.Err); hinted != res.Err {
						slog.Warn("sync: " + hinted.Error())
						break
					}
				}
			}
			return nil
		}

		if interval <= 0 {
			return run(ctx)
		}
		slog.Info("sync: watching", "every", interval)
		scheduler.Every(ctx, interval, func(ctx context.Context) error {
			if err := run(ctx); err != nil {
				return err
			}
			if path := as.Config.GetMetricsTextfile(); path != "" {
				return as.Metrics.WriteTextfile(path)
			}
			return nil
		})
		return nil
	}
}

// authHint points at the credentials when Discord rejected them.
func authHint(err error) error {
	var serviceErr *model.ExternalServiceError
	if errors.As(err, &serviceErr) && serviceErr.IsAuth() {
		return fmt.Errorf("%w (check DISCORD_APP_TOKEN and that the bot may manage events)", err)
	}
	return err
}
