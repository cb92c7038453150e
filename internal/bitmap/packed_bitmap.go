// This file implements methods to pack bitmap pixel data into
// the bit structure served by the calendar endpoint.

package bitmap

import "fmt"

// a bitmap packed in memory
type PackedBitmap struct {
	data                  []byte
	width, height, stride int
}

const bitsPerWord = 8

func (b *PackedBitmap) Width() int {
	return b.width
}

func (b *PackedBitmap) Height() int {
	return b.height
}

func (b *PackedBitmap) Stride() int {
	return b.stride
}

func (b *PackedBitmap) Data() []byte {
	return b.data
}

// Gets a single bit from the bitmap at the (x, y) coordinate, returns either 0 or 1
func (b *PackedBitmap) GetBit(x int, y int) byte {
	// Pixels are left-aligned to the byte, so a row whose width isn't a
	// multiple of 8 leaves the low bits of its final byte unused.
	index := (y * b.stride) + (x / bitsPerWord)
	return (b.data[index] >> (bitsPerWord - 1 - x%bitsPerWord)) & 1
}

func (b *PackedBitmap) String() string {
	return fmt.Sprintf("PackedBitmap(%d,%d)", b.width, b.height)
}

// Take data from any Bitmap implementation and pack it into the frame structure
func Pack(b Bitmap) *PackedBitmap {
	width, height, stride := b.Width(), b.Height(), (b.Width()+bitsPerWord-1)/bitsPerWord
	data := make([]byte, stride*height)

	for y := range height {
		for x := range width {
			index := y*stride + (x / bitsPerWord)
			data[index] |= (b.GetBit(x, y) & 1) << (bitsPerWord - 1 - x%bitsPerWord)
		}
	}

	return &PackedBitmap{data, width, height, stride}
}
