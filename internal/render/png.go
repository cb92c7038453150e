package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"tomgalvin.uk/calview/internal/bitmap"
)

var ErrNonUniformBlock = errors.New("block is not a single colour")

func WritePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("Couldn't encode PNG:\n%w", err)
	}
	return nil
}

// SavePNG writes img to path. The file is written next to its destination and
// renamed into place, so an existing file is only replaced by a complete one.
func SavePNG(path string, img image.Image) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".calview-*.png")
	if err != nil {
		return fmt.Errorf("Couldn't create output file:\n%w", err)
	}
	defer os.Remove(f.Name())

	if err := WritePNG(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("Couldn't write output file:\n%w", err)
	}
	if err := os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("Couldn't move output file into place:\n%w", err)
	}
	return nil
}

// LoadGrid decodes a PNG produced by Render and recovers the grid, checking
// that every scale x scale block is a single colour.
func LoadGrid(r io.Reader, scale int) (*bitmap.Grid, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidScale, scale)
	}

	img, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("Couldn't decode PNG:\n%w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx()%scale != 0 || bounds.Dy()%scale != 0 {
		return nil, fmt.Errorf("Image size %dx%d is not a multiple of scale %d", bounds.Dx(), bounds.Dy(), scale)
	}

	g := bitmap.NewGrid(bounds.Dx()/scale, bounds.Dy()/scale)
	for y := range g.Height() {
		for x := range g.Width() {
			block := image.Rect(x*scale, y*scale, (x+1)*scale, (y+1)*scale).Add(bounds.Min)
			white, err := blockColor(img, block)
			if err != nil {
				return nil, fmt.Errorf("Cell (%d, %d): %w", x, y, err)
			}
			g.Set(x, y, white)
		}
	}

	return g, nil
}

func blockColor(img image.Image, block image.Rectangle) (bool, error) {
	first := isWhite(img.At(block.Min.X, block.Min.Y))
	for py := block.Min.Y; py < block.Max.Y; py++ {
		for px := block.Min.X; px < block.Max.X; px++ {
			if isWhite(img.At(px, py)) != first {
				return false, ErrNonUniformBlock
			}
		}
	}
	return first, nil
}

func isWhite(c color.Color) bool {
	return color.GrayModel.Convert(c).(color.Gray).Y >= 0x80
}
