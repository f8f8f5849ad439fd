/*
Package tile implements a decoder and encoder for map tile records.

A tile is at most 48 by 48 pixels where each pixel is a 15-bit color packed
as 0RRRRRGGGGGBBBBB. The first byte of every record is the type which
determines how the remaining bytes are laid out; all multi-byte values are
little-endian.

A dense record (types 1 and 4) holds every pixel of the 48 by 48 grid as a
16-bit value with the top bit set for opaque pixels. A sparse record (types
2 and 5) starts with a row count followed by, for each row, a segment count
and that many segments of a start column, a pixel count and the pixel
values themselves. A framed record (type 3) carries a signed 16-bit X and Y
offset followed by a nested dense or sparse record.

Types 4 and 5 are blend tiles which must be combined with the destination
rather than copied over it.
*/
package tile

import (
	"errors"
	"fmt"
	"image/color"
)

const (
	// Width is the width of the tile grid in pixels
	Width = 48
	// Height is the height of the tile grid in pixels
	Height     = 48
	numPixels  = Width * Height
	denseBytes = numPixels << 1
	frameBytes = 4
	opaqueBit  = 0x8000
	colorMask  = 0x7fff
)

// Type is the record type discriminator
type Type byte

const (
	TypeDense Type = iota + 1
	TypeSparse
	TypeFramed
	TypeDenseBlend
	TypeSparseBlend
)

func (t Type) blend() bool {
	return t == TypeDenseBlend || t == TypeSparseBlend
}

// Key identifies a tile by tile set and index within that set
type Key struct {
	Set   uint16
	Index uint16
}

func (k Key) String() string {
	return fmt.Sprintf("%d:%d", k.Set, k.Index)
}

// Uint64 packs the key into a single integer
func (k Key) Uint64() uint64 {
	return uint64(k.Set)<<16 | uint64(k.Index)
}

// Run is the horizontal span of a row that may contain opaque pixels
type Run struct {
	Start int
	Count int
}

// End returns the column after the last one covered by the run
func (r Run) End() int {
	return r.Start + r.Count
}

// Tile is a decoded tile. It is never modified after being returned by
// Decode so it can be shared freely between goroutines.
type Tile struct {
	Pixels [numPixels]uint16
	Mask   [numPixels]bool
	Blend  bool

	OffsetX, OffsetY int

	// Width and Height bound the opaque pixels within the grid
	Width, Height int

	Runs [Height]Run
}

// At returns the pixel value and whether it is opaque
func (t *Tile) At(x, y int) (uint16, bool) {
	if x < 0 || y < 0 || x >= Width || y >= Height {
		return 0, false
	}
	i := y*Width + x
	return t.Pixels[i], t.Mask[i]
}

// Errors returned while decoding. Every one of them also matches ErrDecode
// with errors.Is.
var (
	ErrDecode      = errors.New("tile: decode failure")
	ErrEmpty       = fmt.Errorf("%w: empty record", ErrDecode)
	ErrTruncated   = fmt.Errorf("%w: not enough tile data", ErrDecode)
	ErrTrailing    = fmt.Errorf("%w: too much tile data", ErrDecode)
	ErrUnknownType = fmt.Errorf("%w: unknown type", ErrDecode)
	ErrBounds      = fmt.Errorf("%w: segment out of bounds", ErrDecode)
	ErrNestedFrame = fmt.Errorf("%w: nested frame", ErrDecode)
)

// ErrMissing is returned by lookups when no record exists for a key
var ErrMissing = errors.New("tile: missing tile data")

// RGB555 packs c into a 15-bit color
func RGB555(c color.Color) uint16 {
	r, g, b, _ := c.RGBA()
	return uint16(r>>11&0x1f)<<10 | uint16(g>>11&0x1f)<<5 | uint16(b>>11&0x1f)
}

// Color expands a 15-bit color to 8 bits per channel
func Color(v uint16) color.RGBA {
	r := uint8(v >> 10 & 0x1f)
	g := uint8(v >> 5 & 0x1f)
	b := uint8(v & 0x1f)
	return color.RGBA{
		r<<3 | r>>2,
		g<<3 | g>>2,
		b<<3 | b>>2,
		0xff,
	}
}
