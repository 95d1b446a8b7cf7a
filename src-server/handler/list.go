package handler

import (
	"context"
	"fmt"
	"io"
	"time"

	"eventsync/src-server/model"
	"eventsync/src-server/recurrence"
	"eventsync/src-server/ui"

	"github.com/urfave/cli/v3"
)

func List(state *State) *cli.Command {
	return &cli.Command{
		Name:   "list",
		Usage:  "List local events with their next occurrence",
		Action: listHandler(state),
	}
}

func listHandler(state *State) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		as, err := state.Get(ctx)
		if err != nil {
			return err
		}
		events, err := as.Store.Load(ctx)
		if err != nil {
			return err
		}
		printEvents(cmd.Root().Writer, events, time.Now(), as.Config.GetLocation())
		return nil
	}
}

func printEvents(w io.Writer, events []model.LocalEvent, now time.Time, display *time.Location) {
	if len(events) == 0 {
		fmt.Fprintln(w, ui.Dim("no local events"))
		return
	}
	fmt.Fprintln(w, ui.Header(fmt.Sprintf("%-20s %-32s %-11s %-18s %s", "KEY", "TITLE", "TYPE", "NEXT", "REPEATS")))
	for i := range events {
		e := &events[i]
		title := e.Title
		if len(title) > 32 {
			title = title[:29] + "..."
		}
		fmt.Fprintf(w, "%-20s %-32s %-11s %-18s %s\n", e.JoinKey(), title, e.Type, nextOccurrence(e, now, display), e.Recurring)
	}
}

// nextOccurrence renders the next start at or after now, "-" once the event
// is over and "invalid" when its date can't be read.
func nextOccurrence(e *model.LocalEvent, now time.Time, display *time.Location) string {
	start, err := e.StartInstant()
	if err != nil {
		return ui.Error("invalid")
	}
	if !start.Before(now) {
		return start.In(display).Format("2006-01-02 15:04")
	}
	if !e.Recurring.IsActive() {
		return ui.Dim("-")
	}
	loc, _ := e.Location()
	next, ok := recurrence.Next(recurrence.ToExternal(e.Recurring, start, loc), now)
	if !ok {
		return ui.Dim("-")
	}
	return next.In(display).Format("2006-01-02 15:04")
}
