// Package render draws an unpacked frame as a raster image, each logical
// pixel becoming a scale x scale block of solid black or white.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"tomgalvin.uk/calview/internal/bitmap"
)

// Palette is the palette of every image returned by Render. Index 0 is black
// so that a zeroed Pix slice is an all-black image.
var Palette = color.Palette{color.Black, color.White}

const (
	blackIndex uint8 = 0
	whiteIndex uint8 = 1
)

var (
	ErrInvalidScale = errors.New("scale must be positive")
	ErrTooLarge     = errors.New("rendered frame is too large")
)

// maxSurfacePixels bounds the surface Render will allocate.
const maxSurfacePixels = 1 << 28

// surfaceSize returns the size of the grid drawn at scale, or ErrTooLarge if
// either side does not fit in an int.
func surfaceSize(g *bitmap.Grid, scale int) (image.Point, error) {
	if scale <= 0 {
		return image.Point{}, fmt.Errorf("%w (got %d)", ErrInvalidScale, scale)
	}
	limit := math.MaxInt / scale
	if g.Width() > limit || g.Height() > limit {
		return image.Point{}, fmt.Errorf("%w (%v at scale %d)", ErrTooLarge, g, scale)
	}
	return image.Pt(g.Width()*scale, g.Height()*scale), nil
}

// Render allocates a new surface sized exactly to the grid and draws every
// defined cell onto it. Cells missing from a short final row stay white.
func Render(g *bitmap.Grid, scale int) (*image.Paletted, error) {
	size, err := surfaceSize(g, scale)
	if err != nil {
		return nil, err
	}
	if size.Y > 0 && size.X > maxSurfacePixels/size.Y {
		return nil, fmt.Errorf("%w (%dx%d pixels)", ErrTooLarge, size.X, size.Y)
	}

	img := image.NewPaletted(image.Rectangle{Max: size}, Palette)
	for i := range img.Pix {
		img.Pix[i] = whiteIndex
	}

	if err := RenderInto(img, g, scale); err != nil {
		return nil, err
	}
	return img, nil
}

// RenderInto draws the grid onto an existing surface, with cell (0, 0) at the
// surface's minimum point. Blocks falling outside dst are clipped and pixels
// not covered by a defined cell are left as they were.
func RenderInto(dst draw.Image, g *bitmap.Grid, scale int) error {
	if _, err := surfaceSize(g, scale); err != nil {
		return err
	}

	bounds := dst.Bounds()
	black, white := image.NewUniform(color.Black), image.NewUniform(color.White)
	paletted, isPaletted := dst.(*image.Paletted)
	blackIdx, whiteIdx := blackIndex, whiteIndex
	if isPaletted {
		blackIdx = uint8(paletted.Palette.Index(color.Black))
		whiteIdx = uint8(paletted.Palette.Index(color.White))
	}

	for y := range g.Height() {
		for x, v := range g.Row(y) {
			block := image.Rect(x*scale, y*scale, (x+1)*scale, (y+1)*scale).
				Add(bounds.Min).
				Intersect(bounds)
			if block.Empty() {
				continue
			}

			if isPaletted {
				idx := blackIdx
				if v {
					idx = whiteIdx
				}
				fillIndex(paletted, block, idx)
				continue
			}

			src := black
			if v {
				src = white
			}
			draw.Draw(dst, block, src, image.Point{}, draw.Src)
		}
	}

	return nil
}

func fillIndex(img *image.Paletted, r image.Rectangle, idx uint8) {
	for py := r.Min.Y; py < r.Max.Y; py++ {
		start := img.PixOffset(r.Min.X, py)
		row := img.Pix[start : start+r.Dx()]
		for i := range row {
			row[i] = idx
		}
	}
}
