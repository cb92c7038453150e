package cmd

import (
	"fmt"
	"image"
	"log/slog"

	cli "github.com/urfave/cli/v2"

	"tomgalvin.uk/calview/internal/bitmap"
	"tomgalvin.uk/calview/internal/client"
	"tomgalvin.uk/calview/internal/render"
	"tomgalvin.uk/calview/internal/store"
)

func fetchCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "fetch a frame from a calendar service and save it as PNG",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "endpoint", Usage: "calendar service URL, overrides --local"},
			&cli.BoolFlag{Name: "local", Usage: "use the local service at " + client.LocalEndpoint},
			&cli.StringFlag{Name: outputFlagName, Aliases: []string{"o"}, Usage: "PNG file to write (default from config)"},
			scaleFlag(),
			rowWidthFlag(),
			&cli.StringFlag{Name: "mac", Usage: "device identifier sent to the service"},
			&cli.IntFlag{Name: "battery", Usage: "battery level 0-100 sent to the service"},
			&cli.StringFlag{Name: "location", Usage: "weather city ID"},
			&cli.StringFlag{Name: "appid", Usage: "weather API app ID"},
			&cli.StringFlag{Name: "appsecret", Usage: "weather API app secret"},
			noHistoryFlag(),
		},
		Action: func(ctx *cli.Context) error {
			applyFetchFlags(ctx, e)
			if err := e.applyRenderFlags(ctx); err != nil {
				return err
			}
			return fetch(ctx, e)
		},
	}
}

func applyFetchFlags(ctx *cli.Context, e *env) {
	c := &e.config
	if ctx.IsSet("endpoint") {
		c.Endpoint = ctx.String("endpoint")
	}
	if ctx.IsSet("local") {
		c.Local = ctx.Bool("local")
	}
	if ctx.IsSet(outputFlagName) {
		c.Output = ctx.String(outputFlagName)
	}
	if ctx.IsSet("mac") {
		c.Params.Mac = ctx.String("mac")
	}
	if ctx.IsSet("battery") {
		c.Params.Battery = ctx.Int("battery")
	}
	if ctx.IsSet("location") {
		c.Params.Location = ctx.String("location")
	}
	if ctx.IsSet("appid") {
		c.Params.AppID = ctx.String("appid")
	}
	if ctx.IsSet("appsecret") {
		c.Params.AppSecret = ctx.String("appsecret")
	}
}

func fetch(ctx *cli.Context, e *env) error {
	cfg, logger := e.config, e.logger

	c, err := client.New(cfg.ResolvedEndpoint(), cfg.Timeout, logger.With("src", "client"))
	if err != nil {
		return err
	}

	// A failed fetch leaves any previously saved frame alone.
	payload, err := c.Fetch(ctx.Context, cfg.Params)
	if err != nil {
		return err
	}

	img, err := renderPayload(logger, payload, cfg.RowWidthBytes, cfg.Scale)
	if err != nil {
		return err
	}
	if err := render.SavePNG(cfg.Output, img); err != nil {
		return err
	}

	history, err := e.openHistory(ctx)
	if err != nil {
		return err
	}
	if history != nil {
		defer history.Close()
		f := &store.Frame{
			Source:   store.SourceFetched,
			Mac:      cfg.Params.Mac,
			Battery:  cfg.Params.Battery,
			Location: cfg.Params.Location,
			RowWidth: cfg.RowWidthBytes,
			Payload:  payload,
		}
		if err := history.Record(ctx.Context, f); err != nil {
			logger.Error("Couldn't record fetched frame", "err", err)
		} else {
			logger.Debug("Recorded fetched frame", "uuid", f.Uuid)
		}
	}

	fmt.Fprintf(ctx.App.Writer, "Saved %dx%d frame from %s to %s\n",
		img.Bounds().Dx(), img.Bounds().Dy(), c.Endpoint(), cfg.Output)
	return nil
}

// renderPayload unpacks and renders a payload, warning when it ends partway
// through a row.
func renderPayload(logger *slog.Logger, payload []byte, rowWidthBytes int, scale int) (*image.Paletted, error) {
	g, err := bitmap.Unpack(payload, rowWidthBytes)
	if err != nil {
		return nil, err
	}
	if g.Partial() {
		logger.Warn("Payload ends partway through a row",
			"bytes", len(payload),
			"rowWidthBytes", rowWidthBytes,
			"missingBytes", rowWidthBytes-len(payload)%rowWidthBytes,
		)
	}
	logger.Debug("Unpacked frame", "grid", g.String(), "scale", scale)
	return render.Render(g, scale)
}
