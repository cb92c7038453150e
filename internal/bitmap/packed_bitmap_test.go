package bitmap

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math/rand/v2"
	"testing"
)

func aRandomGrid() *Grid {
	width, height := 1+rand.IntN(400), 1+rand.IntN(400)
	g := NewGrid(width, height)
	for y := range height {
		for x := range width {
			g.Set(x, y, rand.IntN(2) == 1)
		}
	}
	return g
}

func assertBitmapsIdentical(t *testing.T, b1 Bitmap, b2 Bitmap) {
	t.Helper()
	if b1.Width() != b2.Width() {
		t.Errorf("Bitmaps not of equal width: %s %s", b1, b2)
	}
	if b1.Height() != b2.Height() {
		t.Errorf("Bitmaps not of equal height: %s %s", b1, b2)
	}
	width, height := min(b1.Width(), b2.Width()), min(b1.Height(), b2.Height())

	for y := range height {
		for x := range width {
			bit1, bit2 := b1.GetBit(x, y), b2.GetBit(x, y)
			if bit1 != bit2 {
				t.Fatalf("Bit at (%v, %v) doesn't match: %v vs %v", x, y, bit1, bit2)
			}
		}
	}
}

func TestPack(t *testing.T) {
	g := NewGrid(9, 2)
	g.Set(0, 0, true)
	g.Set(8, 0, true)
	g.Set(1, 1, true)

	packed := Pack(g)
	if packed.Stride() != 2 {
		t.Errorf("Stride() = %d, want 2", packed.Stride())
	}
	want := []byte{0x80, 0x80, 0x40, 0x00}
	if !bytes.Equal(packed.Data(), want) {
		t.Errorf("Data() = %08b, want %08b", packed.Data(), want)
	}
	assertBitmapsIdentical(t, g, packed)
}

func TestPackMany(t *testing.T) {
	const testCaseCount = 30

	for i := range testCaseCount {
		testGrid := aRandomGrid()
		t.Run(fmt.Sprintf("test %v: %s", i, testGrid.String()), func(t *testing.T) {
			packed := Pack(testGrid)
			assertBitmapsIdentical(t, testGrid, packed)
			packedAgain := Pack(packed)
			assertBitmapsIdentical(t, packed, packedAgain)
		})
	}
}

func TestPackThenUnpack(t *testing.T) {
	const testCaseCount = 10

	for i := range testCaseCount {
		rowWidthBytes := 1 + rand.IntN(50)
		g := NewGrid(rowWidthBytes*8, 1+rand.IntN(100))
		for y := range g.Height() {
			for x := range g.Width() {
				g.Set(x, y, rand.IntN(2) == 1)
			}
		}

		t.Run(fmt.Sprintf("test %v: %s", i, g.String()), func(t *testing.T) {
			unpacked, err := Unpack(Pack(g).Data(), rowWidthBytes)
			if err != nil {
				t.Fatalf("Unpack() error = %v", err)
			}
			assertBitmapsIdentical(t, g, unpacked)
		})
	}
}

func TestFromPaletted(t *testing.T) {
	tests := []struct {
		name    string
		palette color.Palette
	}{
		{"black first", color.Palette{color.Black, color.White}},
		{"white first", color.Palette{color.White, color.Black}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewPaletted(image.Rect(0, 0, 2, 1), tt.palette)
			img.Set(0, 0, color.White)
			img.Set(1, 0, color.Black)

			b, err := FromPaletted(img)
			if err != nil {
				t.Fatalf("FromPaletted() error = %v", err)
			}
			if b.GetBit(0, 0) != 1 || b.GetBit(1, 0) != 0 {
				t.Errorf("bits = %d %d, want 1 0", b.GetBit(0, 0), b.GetBit(1, 0))
			}
		})
	}
}

func TestFromPalettedRejectsWidePalette(t *testing.T) {
	img := image.NewPaletted(image.Rect(0, 0, 1, 1), color.Palette{color.Black, color.White, color.Gray{Y: 128}})
	if _, err := FromPaletted(img); err == nil {
		t.Errorf("FromPaletted() accepted a 3 colour palette")
	}
}

func TestThreshold(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 1))
	img.SetGray(0, 0, color.Gray{Y: 0})
	img.SetGray(1, 0, color.Gray{Y: 126})
	img.SetGray(2, 0, color.Gray{Y: 127})

	g := Threshold(img, 127)
	if g.At(0, 0) || g.At(1, 0) || !g.At(2, 0) {
		t.Errorf("Threshold() row = %v, want [false false true]", g.Row(0))
	}
}

func TestDither(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 40, 20))
	for x := range 20 {
		for y := range 20 {
			img.SetGray(x+20, y, color.Gray{Y: 255})
		}
	}

	d := Dither(img, 80)
	if d.Bounds().Dx() != 80 || d.Bounds().Dy() != 40 {
		t.Errorf("Dither() bounds = %v, want 80x40", d.Bounds())
	}
	if len(d.Palette) != 2 {
		t.Fatalf("len(Palette) = %d, want 2", len(d.Palette))
	}

	b, err := FromPaletted(d)
	if err != nil {
		t.Fatalf("FromPaletted() error = %v", err)
	}
	if b.GetBit(2, 2) != 0 || b.GetBit(77, 37) != 1 {
		t.Errorf("solid regions did not survive dithering")
	}
}
