package bitmap

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidRowWidth = errors.New("row width must be a positive number of bytes")

// Unpack turns a frame payload into a Grid. Every byte holds 8 horizontally
// adjacent pixels, most significant bit leftmost, and rowWidthBytes bytes make
// up one row. A payload that stops partway through a row produces a short
// final row rather than an error.
func Unpack(payload []byte, rowWidthBytes int) (*Grid, error) {
	if rowWidthBytes <= 0 || rowWidthBytes > math.MaxInt/bitsPerWord {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidRowWidth, rowWidthBytes)
	}

	height := len(payload) / rowWidthBytes
	if len(payload)%rowWidthBytes != 0 {
		height++
	}
	g := &Grid{
		rows:  make([][]bool, height),
		width: rowWidthBytes * bitsPerWord,
	}
	for y := range height {
		bytesInRow := min(rowWidthBytes, len(payload)-y*rowWidthBytes)
		g.rows[y] = make([]bool, bytesInRow*bitsPerWord)
	}

	for i, p := range payload {
		y := i / rowWidthBytes
		x0 := (i % rowWidthBytes) * bitsPerWord
		for b := range bitsPerWord {
			g.rows[y][x0+b] = (p>>(bitsPerWord-1-b))&1 == 1
		}
	}

	return g, nil
}
