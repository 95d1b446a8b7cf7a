package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"eventsync/src-server/model"
	"eventsync/src-server/recurrence"
	"eventsync/src-server/transform"
	"eventsync/src-server/ui"
	"eventsync/src-server/utils"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
)

func Add(state *State) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add an event to the local collection",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "title",
				Aliases:  []string{"t"},
				Usage:    "Event title",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "when",
				Aliases:  []string{"w"},
				Usage:    `Start, e.g. "next friday at 8pm" or "2025-03-10 18:00"`,
				Required: true,
			},
			&cli.StringFlag{
				Name:  "description",
				Usage: "Event description",
			},
			&cli.IntFlag{
				Name:  "duration",
				Value: transform.DefaultDurationMinutes,
				Usage: "Duration in minutes",
			},
			&cli.BoolFlag{
				Name:  "weekly",
				Usage: "Repeat every week",
			},
			&cli.BoolFlag{
				Name:  "monthly",
				Usage: "Repeat every month on the start's day of month",
			},
			&cli.IntFlag{
				Name:  "day",
				Value: -1,
				Usage: "Weekday for --weekly, 0 = Monday ... 6 = Sunday (default: the start's weekday)",
			},
			&cli.StringFlag{
				Name:  "until",
				Usage: "Last day of the recurrence, YYYY-MM-DD",
			},
			&cli.StringFlag{
				Name:  "coach",
				Usage: "Coach handle (default: guessed from the title)",
			},
			&cli.BoolFlag{
				Name:  "free",
				Usage: "Mark the event as free",
			},
			&cli.StringSliceFlag{
				Name:  "video",
				Usage: "Video id, may be repeated",
			},
			&cli.StringSliceFlag{
				Name:  "category",
				Usage: "Category, may be repeated",
			},
		},
		Action: addHandler(state),
	}
}

func addHandler(state *State) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		if cmd.Bool("weekly") && cmd.Bool("monthly") {
			return fmt.Errorf("add: --weekly and --monthly are exclusive")
		}
		if cmd.Int("day") >= 0 && !cmd.Bool("weekly") {
			return fmt.Errorf("add: --day needs --weekly")
		}

		as, err := state.Get(ctx)
		if err != nil {
			return err
		}
		loc := as.Config.GetLocation()

		start, err := parseStart(as, cmd.String("when"), loc)
		if err != nil {
			return err
		}

		event := model.LocalEvent{
			ID:              uuid.NewString(),
			Title:           utils.CleanupString(cmd.String("title")),
			Description:     strings.TrimSpace(cmd.String("description")),
			Date:            start.Format(model.DateLayout),
			Time:            start.Format(model.TimeLayout),
			Timezone:        loc.String(),
			DurationMinutes: int(cmd.Int("duration")),
			Coach:           cmd.String("coach"),
			IsFree:          cmd.Bool("free"),
			VideoIDs:        cmd.StringSlice("video"),
			Categories:      cmd.StringSlice("category"),
		}

		switch {
		case cmd.Bool("weekly"):
			event.Recurring = &model.Recurring{Enabled: true, Frequency: model.FrequencyWeekly}
			day := int(cmd.Int("day"))
			if day < 0 {
				day = recurrence.EffectiveWeekday(event.Recurring, start, loc)
			}
			event.Recurring.DayOfWeek = &day
		case cmd.Bool("monthly"):
			event.Recurring = &model.Recurring{Enabled: true, Frequency: model.FrequencyMonthly}
		}
		if until := cmd.String("until"); until != "" {
			if event.Recurring == nil {
				return fmt.Errorf("add: --until needs --weekly or --monthly")
			}
			event.Recurring.EndDate = until
		}

		transform.Classify(&event)
		if err := event.Upsert(ctx, as.BunDB); err != nil {
			return fmt.Errorf("add: %w", err)
		}

		fmt.Fprintln(cmd.Root().Writer, ui.StatusSuccess(fmt.Sprintf("Added %s (%s) on %s %s %s, %s",
			ui.Bold(event.Title), event.Type, event.Date, event.Time, event.Timezone, event.Recurring)))
		fmt.Fprintln(cmd.Root().Writer, ui.Dim(event.ID))
		return nil
	}
}

// parseStart accepts an exact "YYYY-MM-DD HH:MM" or anything the natural
// language parser understands, both read in loc.
func parseStart(as *utils.AppState, text string, loc *time.Location) (time.Time, error) {
	if start, err := time.ParseInLocation(model.DateLayout+" "+model.TimeLayout, strings.TrimSpace(text), loc); err == nil {
		return start, nil
	}
	result, err := as.When.Parse(text, time.Now().In(loc))
	if err != nil {
		return time.Time{}, fmt.Errorf("add: can't parse %q: %w", text, err)
	}
	if result == nil {
		return time.Time{}, fmt.Errorf("add: no date found in %q", text)
	}
	return result.Time.In(loc), nil
}
