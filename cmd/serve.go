package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	cli "github.com/urfave/cli/v2"

	"tomgalvin.uk/calview/internal/calendar"
	"tomgalvin.uk/calview/internal/server"
	"tomgalvin.uk/calview/internal/weather"
)

func serveCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the calendar service devices fetch their frames from",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "port to listen on (default from config)"},
			&cli.IntFlag{Name: "width", Usage: "frame width in pixels, a multiple of 8"},
			&cli.IntFlag{Name: "height", Usage: "frame height in pixels"},
			&cli.BoolFlag{Name: "no-weather", Usage: "don't fetch weather for frames"},
			noHistoryFlag(),
		},
		Action: func(ctx *cli.Context) error {
			c := &e.config.Server
			if ctx.IsSet("port") {
				c.Port = ctx.Int("port")
			}
			if ctx.IsSet("width") {
				c.Width = ctx.Int("width")
			}
			if ctx.IsSet("height") {
				c.Height = ctx.Int("height")
			}
			if err := e.config.Validate(); err != nil {
				return err
			}
			return serve(ctx, e)
		},
	}
}

func serve(ctx *cli.Context, e *env) error {
	cfg, logger := e.config.Server, e.logger

	renderer, err := calendar.NewRenderer(cfg.Width, cfg.Height)
	if err != nil {
		return err
	}

	var ws server.WeatherSource
	if !ctx.Bool("no-weather") {
		ws = weather.New(cfg.WeatherURL, cfg.WeatherTimeout)
	}

	var recorder server.FrameRecorder
	history, err := e.openHistory(ctx)
	if err != nil {
		return err
	}
	if history != nil {
		defer history.Close()
		recorder = history
	}

	si := server.NewServer(logger.With("src", "server"), renderer, ws, recorder)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           si.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "width", cfg.Width, "height", cfg.Height)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return fmt.Errorf("Error starting server:\n%w", err)
	case <-ctx.Context.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("Couldn't shut down server:\n%w", err)
	}
	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
