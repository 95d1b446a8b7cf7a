package handler

import (
	"context"
	"fmt"
	"time"

	"eventsync/src-server/ui"

	"github.com/urfave/cli/v3"
)

func History(state *State) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent sync runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Value:   10,
				Usage:   "Number of runs to show",
			},
		},
		Action: historyHandler(state),
	}
}

func historyHandler(state *State) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		as, err := state.Get(ctx)
		if err != nil {
			return err
		}
		runs, err := as.Store.Runs(ctx, int(cmd.Int("limit")))
		if err != nil {
			return err
		}
		w := cmd.Root().Writer
		if len(runs) == 0 {
			fmt.Fprintln(w, ui.Dim("no sync runs yet"))
			return nil
		}
		fmt.Fprintln(w, ui.Header(fmt.Sprintf("%-20s %-9s %-24s %s", "STARTED", "DURATION", "CONFLICTS (L/D/M)", "OUTCOMES")))
		for _, r := range runs {
			outcome := fmt.Sprintf("%d applied, %d skipped, %d failed", r.AppliedLocal+r.AppliedDiscord, r.Skipped, r.Failed)
			switch {
			case r.DryRun:
				outcome = ui.Warning("dry run")
			case r.Failed > 0:
				outcome = ui.Error(outcome)
			}
			fmt.Fprintf(w, "%-20s %-9s %-24s %s\n",
				r.StartedAt.In(as.Config.GetLocation()).Format("2006-01-02 15:04:05"),
				r.FinishedAt.Sub(r.StartedAt).Round(100*time.Millisecond),
				fmt.Sprintf("%d/%d/%d", r.MissingLocal, r.MissingDiscord, r.Mismatch),
				outcome)
		}
		return nil
	}
}
