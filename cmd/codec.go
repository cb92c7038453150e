package cmd

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	cli "github.com/urfave/cli/v2"
	_ "golang.org/x/image/bmp"

	"tomgalvin.uk/calview/internal/bitmap"
	"tomgalvin.uk/calview/internal/render"
)

func decodeCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "render a raw frame file as PNG",
		ArgsUsage: "<frame.bin> <frame.png>",
		Flags:     []cli.Flag{scaleFlag(), rowWidthFlag()},
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() != 2 {
				return errors.New("decode requires 2 arguments, see help decode")
			}
			if err := e.applyRenderFlags(ctx); err != nil {
				return err
			}
			input, output := ctx.Args().Get(0), ctx.Args().Get(1)

			payload, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("Couldn't read frame:\n%w", err)
			}
			img, err := renderPayload(e.logger, payload, e.config.RowWidthBytes, e.config.Scale)
			if err != nil {
				return err
			}
			if err := render.SavePNG(output, img); err != nil {
				return err
			}

			fmt.Fprintf(ctx.App.Writer, "Saved %dx%d frame to %s\n", img.Bounds().Dx(), img.Bounds().Dy(), output)
			return nil
		},
	}
}

func encodeCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "encode",
		Usage:     "dither an image to black and white and pack it as a raw frame",
		ArgsUsage: "<image> <frame.bin>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "width", Aliases: []string{"w"}, Usage: "frame width in pixels, a multiple of 8 (default: row width * 8)"},
		},
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() != 2 {
				return errors.New("encode requires 2 arguments, see help encode")
			}
			width := e.config.RowWidthBytes * 8
			if ctx.IsSet("width") {
				width = ctx.Int("width")
			}
			if width <= 0 || width%8 != 0 {
				return fmt.Errorf("width must be a positive multiple of 8, got %d", width)
			}
			input, output := ctx.Args().Get(0), ctx.Args().Get(1)

			f, err := os.Open(input)
			if err != nil {
				return fmt.Errorf("Couldn't open image:\n%w", err)
			}
			defer f.Close()
			img, format, err := image.Decode(f)
			if err != nil {
				return fmt.Errorf("Couldn't decode image:\n%w", err)
			}
			e.logger.Debug("Decoded image", "format", format, "bounds", img.Bounds())

			b, err := bitmap.FromPaletted(bitmap.Dither(img, width))
			if err != nil {
				return err
			}
			packed := bitmap.Pack(b)
			if err := os.WriteFile(output, packed.Data(), 0644); err != nil {
				return fmt.Errorf("Couldn't write frame:\n%w", err)
			}

			fmt.Fprintf(ctx.App.Writer, "Wrote %s to %s (%d bytes per row)\n", packed, output, packed.Stride())
			return nil
		},
	}
}
