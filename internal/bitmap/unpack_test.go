package bitmap

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"testing"
)

func aRandomPayload(rowWidthBytes int, rows int) []byte {
	payload := make([]byte, rowWidthBytes*rows)
	for i := range payload {
		payload[i] = byte(rand.IntN(256))
	}
	return payload
}

func TestUnpackKnownBytes(t *testing.T) {
	tests := []struct {
		name string
		in   byte
		want []bool
	}{
		{"all white", 0xFF, []bool{true, true, true, true, true, true, true, true}},
		{"all black", 0x00, []bool{false, false, false, false, false, false, false, false}},
		{"msb first", 0b10110000, []bool{true, false, true, true, false, false, false, false}},
		{"lsb only", 0x01, []bool{false, false, false, false, false, false, false, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Unpack([]byte{tt.in}, 1)
			if err != nil {
				t.Fatalf("Unpack() error = %v", err)
			}
			if g.Height() != 1 || g.Width() != 8 {
				t.Fatalf("got %s, want Grid(8,1)", g)
			}
			for x, want := range tt.want {
				if got := g.At(x, 0); got != want {
					t.Errorf("At(%d, 0) = %v, want %v", x, got, want)
				}
			}
		})
	}
}

func TestUnpackSingleRow(t *testing.T) {
	for _, rowWidthBytes := range []int{1, 3, 25, 50} {
		t.Run(fmt.Sprintf("row width %d", rowWidthBytes), func(t *testing.T) {
			g, err := Unpack(aRandomPayload(rowWidthBytes, 1), rowWidthBytes)
			if err != nil {
				t.Fatalf("Unpack() error = %v", err)
			}
			if g.Height() != 1 {
				t.Errorf("Height() = %d, want 1", g.Height())
			}
			if len(g.Row(0)) != rowWidthBytes*8 {
				t.Errorf("len(Row(0)) = %d, want %d", len(g.Row(0)), rowWidthBytes*8)
			}
			if g.Partial() {
				t.Errorf("Partial() = true for a complete row")
			}
		})
	}
}

func TestUnpackFrameDimensions(t *testing.T) {
	g, err := Unpack(aRandomPayload(25, 200), 25)
	if err != nil {
		t.Fatalf("Unpack() error = %v", err)
	}
	if g.Width() != 200 || g.Height() != 200 {
		t.Errorf("got %s, want Grid(200,200)", g)
	}
}

func TestUnpackBitFlipChangesOnePixel(t *testing.T) {
	const rowWidthBytes = 4
	payload := aRandomPayload(rowWidthBytes, 3)
	original, err := Unpack(payload, rowWidthBytes)
	if err != nil {
		t.Fatalf("Unpack() error = %v", err)
	}

	for i := range payload {
		for b := range 8 {
			flipped := append([]byte(nil), payload...)
			flipped[i] ^= 0x80 >> b

			g, err := Unpack(flipped, rowWidthBytes)
			if err != nil {
				t.Fatalf("Unpack() error = %v", err)
			}

			wantX, wantY := (i%rowWidthBytes)*8+b, i/rowWidthBytes
			for y := range g.Height() {
				for x := range g.Width() {
					changed := g.At(x, y) != original.At(x, y)
					if changed != (x == wantX && y == wantY) {
						t.Errorf("byte %d bit %d: pixel (%d, %d) changed = %v", i, b, x, y, changed)
					}
				}
			}
		}
	}
}

func TestUnpackEmpty(t *testing.T) {
	g, err := Unpack(nil, 25)
	if err != nil {
		t.Fatalf("Unpack() error = %v", err)
	}
	if g.Height() != 0 {
		t.Errorf("Height() = %d, want 0", g.Height())
	}
	if g.Partial() {
		t.Errorf("Partial() = true for an empty grid")
	}
}

func TestUnpackInvalidRowWidth(t *testing.T) {
	for _, rowWidthBytes := range []int{0, -1, math.MaxInt, math.MaxInt/bitsPerWord + 1} {
		if _, err := Unpack([]byte{0xFF}, rowWidthBytes); !errors.Is(err, ErrInvalidRowWidth) {
			t.Errorf("Unpack(_, %d) error = %v, want ErrInvalidRowWidth", rowWidthBytes, err)
		}
	}
}

func TestUnpackPartialRow(t *testing.T) {
	// two full rows of 3 bytes then one byte of a third row
	payload := []byte{0, 0, 0, 0xFF, 0xFF, 0xFF, 0b11000000}
	g, err := Unpack(payload, 3)
	if err != nil {
		t.Fatalf("Unpack() error = %v", err)
	}

	if g.Height() != 3 {
		t.Fatalf("Height() = %d, want 3", g.Height())
	}
	if !g.Partial() {
		t.Errorf("Partial() = false, want true")
	}
	if len(g.Row(2)) != 8 {
		t.Errorf("len(Row(2)) = %d, want 8", len(g.Row(2)))
	}
	if !g.At(0, 2) || !g.At(1, 2) || g.At(2, 2) {
		t.Errorf("partial row bits = %v, want 11000000", g.Row(2))
	}
	if g.Defined(8, 2) {
		t.Errorf("Defined(8, 2) = true past the end of the payload")
	}
	if g.At(23, 2) {
		t.Errorf("undefined cell should read as black")
	}
}
