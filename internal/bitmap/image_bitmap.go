package bitmap

import (
	"fmt"
	"image"
	"image/color"

	"github.com/makeworld-the-better-one/dither/v2"
	"github.com/nfnt/resize"
)

type ImageBitmap struct {
	image *image.Paletted
	// colorMap[i] represents the bit value of the palette colour at index i.
	// If the first colour in the image is white then colorMap[0] == 1, since a
	// high bit in a frame is a white pixel.
	colorMap [2]byte
}

func (b *ImageBitmap) Width() int {
	return b.image.Rect.Dx()
}

func (b *ImageBitmap) Height() int {
	return b.image.Rect.Dy()
}

func (b *ImageBitmap) GetBit(x int, y int) byte {
	r := b.image.Rect
	return b.colorMap[b.image.ColorIndexAt(r.Min.X+x, r.Min.Y+y)]
}

func FromPaletted(i *image.Paletted) (*ImageBitmap, error) {
	if len(i.Palette) != 2 {
		return nil, fmt.Errorf("Image passed to FromPaletted must have only 2 colours in palette, got %d", len(i.Palette))
	}

	var colorMap [2]byte

	// Determine which of the two colours in the image's palette is closest to white.
	if i.Palette.Index(color.White) == 0 {
		colorMap = [2]byte{1, 0}
	} else {
		colorMap = [2]byte{0, 1}
	}

	return &ImageBitmap{
		image:    i,
		colorMap: colorMap,
	}, nil
}

// Dither scales an image to the given frame width, keeping its aspect ratio,
// and reduces it to black and white with Floyd-Steinberg error diffusion.
func Dither(i image.Image, width int) *image.Paletted {
	scaled := i
	if i.Bounds().Dx() != width {
		scaled = resize.Resize(uint(width), 0, i, resize.Lanczos3)
	}

	palette := []color.Color{color.Black, color.White}
	ditherer := dither.NewDitherer(palette)
	ditherer.Matrix = dither.FloydSteinberg
	ditherer.Serpentine = true

	return ditherer.DitherPaletted(scaled)
}

// Threshold maps every pixel of i to white when its luma is at least cutoff
// and black otherwise.
func Threshold(i image.Image, cutoff uint8) *Grid {
	bounds := i.Bounds()
	g := NewGrid(bounds.Dx(), bounds.Dy())
	for y := range bounds.Dy() {
		for x := range bounds.Dx() {
			gray := color.GrayModel.Convert(i.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			g.rows[y][x] = gray.Y >= cutoff
		}
	}
	return g
}
