package handler

import (
	"context"
	"fmt"

	"eventsync/src-server/store"
	"eventsync/src-server/ui"

	"github.com/urfave/cli/v3"
)

func Import(state *State) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Merge events from a JSON file into the local collection",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "JSON array of events",
				Required: true,
			},
		},
		Action: importHandler(state),
	}
}

func importHandler(state *State) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		as, err := state.Get(ctx)
		if err != nil {
			return err
		}
		n, err := store.ImportJSON(ctx, as.Store, cmd.String("file"))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.Root().Writer, ui.StatusSuccess(fmt.Sprintf("imported %d event(s) from %s", n, cmd.String("file"))))
		return nil
	}
}

func Export(state *State) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write the local collection to a JSON file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Output path, overwritten",
				Required: true,
			},
		},
		Action: exportHandler(state),
	}
}

func exportHandler(state *State) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		as, err := state.Get(ctx)
		if err != nil {
			return err
		}
		n, err := store.ExportJSON(ctx, as.Store, cmd.String("file"))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.Root().Writer, ui.StatusSuccess(fmt.Sprintf("exported %d event(s) to %s", n, cmd.String("file"))))
		return nil
	}
}
