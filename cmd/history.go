package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v2"

	"tomgalvin.uk/calview/internal/render"
	"tomgalvin.uk/calview/internal/store"
)

func historyCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "inspect frames recorded by fetch and serve",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list the most recent frames",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20},
				},
				Action: func(ctx *cli.Context) error {
					history, err := e.requireHistory(ctx)
					if err != nil {
						return err
					}
					defer history.Close()

					frames, err := history.List(ctx.Context, ctx.Int("limit"))
					if err != nil {
						return err
					}

					w := tabwriter.NewWriter(ctx.App.Writer, 0, 4, 2, ' ', 0)
					fmt.Fprintln(w, "UUID\tSOURCE\tCREATED\tMAC\tBATTERY\tBYTES")
					for _, f := range frames {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n",
							f.Uuid, f.Source, f.CreatedAt.Local().Format(time.DateTime), f.Mac, f.Battery, f.Size)
					}
					return w.Flush()
				},
			},
			{
				Name:      "show",
				Usage:     "render a recorded frame as PNG",
				ArgsUsage: "<uuid>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: outputFlagName, Aliases: []string{"o"}, Usage: "PNG file to write (default from config)"},
					scaleFlag(),
				},
				Action: func(ctx *cli.Context) error {
					if ctx.NArg() != 1 {
						return errors.New("show requires a frame UUID, see help history show")
					}
					u, err := uuid.Parse(ctx.Args().First())
					if err != nil {
						return fmt.Errorf("Frame UUID is not valid:\n%w", err)
					}
					if err := e.applyRenderFlags(ctx); err != nil {
						return err
					}
					output := e.config.Output
					if ctx.IsSet(outputFlagName) {
						output = ctx.String(outputFlagName)
					}

					history, err := e.requireHistory(ctx)
					if err != nil {
						return err
					}
					defer history.Close()

					f, err := history.Get(ctx.Context, u)
					if err != nil {
						return err
					}
					if f == nil {
						return fmt.Errorf("No frame with UUID %s", u)
					}

					// frames are unpacked with the row width they were recorded with
					img, err := renderPayload(e.logger, f.Payload, f.RowWidth, e.config.Scale)
					if err != nil {
						return err
					}
					if err := render.SavePNG(output, img); err != nil {
						return err
					}
					fmt.Fprintf(ctx.App.Writer, "Saved %dx%d frame to %s\n", img.Bounds().Dx(), img.Bounds().Dy(), output)
					return nil
				},
			},
		},
	}
}

func (e *env) requireHistory(ctx *cli.Context) (*store.FrameRepository, error) {
	history, err := e.openHistory(ctx)
	if err != nil {
		return nil, err
	}
	if history == nil {
		return nil, errors.New("frame history is disabled, set database in the configuration or pass --database")
	}
	return history, nil
}
