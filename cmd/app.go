package cmd

import (
	"fmt"
	"log/slog"

	cli "github.com/urfave/cli/v2"

	"tomgalvin.uk/calview/internal/config"
	"tomgalvin.uk/calview/internal/store"
)

const (
	configFlagName    = "config"
	verboseFlagName   = "verbose"
	databaseFlagName  = "database"
	noHistoryFlagName = "no-history"
	scaleFlagName     = "scale"
	rowWidthFlagName  = "row-width"
	outputFlagName    = "output"
)

// env is filled in by the app's Before hook and shared by every command.
type env struct {
	logger *slog.Logger
	config config.Config
}

func NewApp() *cli.App {
	e := &env{}

	app := &cli.App{
		Name:  "calview",
		Usage: "fetch, decode and serve 1-bit e-ink calendar frames",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    configFlagName,
				Aliases: []string{"c"},
				Value:   config.DefaultPath,
				Usage:   "YAML configuration file; missing files fall back to defaults",
				EnvVars: []string{"CALVIEW_CONFIG"},
			},
			&cli.BoolFlag{
				Name:    verboseFlagName,
				Aliases: []string{"v"},
				Usage:   "log debug output",
			},
			&cli.StringFlag{
				Name:  databaseFlagName,
				Usage: "frame history database, overrides the configuration file",
			},
		},
		Commands: []*cli.Command{
			fetchCommand(e),
			decodeCommand(e),
			encodeCommand(e),
			serveCommand(e),
			historyCommand(e),
		},
	}

	app.Before = func(ctx *cli.Context) error {
		level := slog.LevelInfo
		if ctx.Bool(verboseFlagName) {
			level = slog.LevelDebug
		}
		e.logger = slog.New(slog.NewTextHandler(ctx.App.ErrWriter, &slog.HandlerOptions{Level: level}))

		c, err := config.Load(ctx.String(configFlagName))
		if err != nil {
			return err
		}
		if ctx.IsSet(databaseFlagName) {
			c.Database = ctx.String(databaseFlagName)
		}
		e.config = c
		return nil
	}

	return app
}

// openHistory opens the frame history, returning nil when it is disabled.
func (e *env) openHistory(ctx *cli.Context) (*store.FrameRepository, error) {
	if e.config.Database == "" || ctx.Bool(noHistoryFlagName) {
		return nil, nil
	}
	r, err := store.Open(e.config.Database)
	if err != nil {
		return nil, fmt.Errorf("Couldn't open frame history %s:\n%w", e.config.Database, err)
	}
	return r, nil
}

func noHistoryFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  noHistoryFlagName,
		Usage: "don't record frames in the history database",
	}
}

func scaleFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    scaleFlagName,
		Aliases: []string{"s"},
		Usage:   "size in pixels of the block drawn for each frame pixel (default from config)",
	}
}

func rowWidthFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  rowWidthFlagName,
		Usage: "bytes per frame row (default from config)",
	}
}

// applyRenderFlags copies the scale and row width flags over the loaded config.
func (e *env) applyRenderFlags(ctx *cli.Context) error {
	if ctx.IsSet(scaleFlagName) {
		e.config.Scale = ctx.Int(scaleFlagName)
	}
	if ctx.IsSet(rowWidthFlagName) {
		e.config.RowWidthBytes = ctx.Int(rowWidthFlagName)
	}
	return e.config.Validate()
}
