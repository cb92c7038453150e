// This package defines an interface for a simple bitmap structure that has a
// width, height, and can get bits from the bitmap by (x,y) coordinate.
// A bit value of 1 is a white pixel and 0 is a black pixel, which is how the
// calendar service encodes its frames.
// Grid is the unpacked form of a frame, one bool per pixel, and PackedBitmap
// is the wire form with 8 pixels per byte, most significant bit first.
package bitmap

import (
	"fmt"
)

type Bitmap interface {
	Width() int
	Height() int
	GetBit(x int, y int) byte
}

// Grid stores a bitonal image one bool per pixel, true being white.
// The last row may be shorter than Width() when the grid was unpacked from a
// payload that ends partway through a row; cells past the end of a short row
// are undefined.
type Grid struct {
	rows  [][]bool
	width int
}

func NewGrid(width int, height int) *Grid {
	rows := make([][]bool, height)
	for y := range height {
		rows[y] = make([]bool, width)
	}
	return &Grid{rows: rows, width: width}
}

func (g *Grid) Width() int {
	return g.width
}

func (g *Grid) Height() int {
	return len(g.rows)
}

// Row returns the defined cells of row y. The slice is shared with the grid.
func (g *Grid) Row(y int) []bool {
	return g.rows[y]
}

func (g *Grid) Defined(x int, y int) bool {
	return y >= 0 && y < len(g.rows) && x >= 0 && x < len(g.rows[y])
}

// At reports whether the pixel at (x, y) is white. Undefined cells read as black.
func (g *Grid) At(x int, y int) bool {
	if !g.Defined(x, y) {
		return false
	}
	return g.rows[y][x]
}

func (g *Grid) Set(x int, y int, white bool) {
	if g.Defined(x, y) {
		g.rows[y][x] = white
	}
}

func (g *Grid) GetBit(x int, y int) byte {
	if g.At(x, y) {
		return 1
	}
	return 0
}

// Partial reports whether the final row is shorter than the grid width.
func (g *Grid) Partial() bool {
	n := len(g.rows)
	return n > 0 && len(g.rows[n-1]) < g.width
}

func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%d,%d)", g.Width(), g.Height())
}
