package render

import (
	"encoding/binary"
	"image"
	"image/color"

	"github.com/bodgit/isomap/tile"
)

const bytesPerPixel = 2

// Pixel is a 15-bit color as stored in a Buffer
type Pixel uint16

// RGBA implements the color.Color interface
func (p Pixel) RGBA() (r, g, b, a uint32) {
	return tile.Color(uint16(p)).RGBA()
}

func pixelModel(c color.Color) color.Color {
	if p, ok := c.(Pixel); ok {
		return p
	}
	return Pixel(tile.RGB555(c))
}

// PixelModel converts any color to a Pixel
var PixelModel = color.ModelFunc(pixelModel)

// Buffer is a destination for rendering. Each pixel is a 15-bit color stored
// as two bytes, little-endian. It implements draw.Image so a rendered buffer
// can be handed straight to image encoders and scalers.
type Buffer struct {
	pix           []byte
	stride        int
	width, height int
}

// NewBuffer returns a zeroed buffer of the given size
func NewBuffer(width, height int) *Buffer {
	if width < 0 || height < 0 {
		panic("render: negative buffer size")
	}
	return &Buffer{
		pix:    make([]byte, width*height*bytesPerPixel),
		stride: width * bytesPerPixel,
		width:  width,
		height: height,
	}
}

// Width returns the width in pixels
func (b *Buffer) Width() int { return b.width }

// Height returns the height in pixels
func (b *Buffer) Height() int { return b.height }

// Stride returns the distance in bytes between vertically adjacent pixels
func (b *Buffer) Stride() int { return b.stride }

// Bytes returns the underlying pixel data
func (b *Buffer) Bytes() []byte { return b.pix }

func (b *Buffer) offset(x, y int) (int, bool) {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return 0, false
	}
	return y*b.stride + x*bytesPerPixel, true
}

// At16 returns the raw value of the pixel at (x, y) or zero if it lies
// outside the buffer
func (b *Buffer) At16(x, y int) uint16 {
	if i, ok := b.offset(x, y); ok {
		return binary.LittleEndian.Uint16(b.pix[i:])
	}
	return 0
}

// Set16 sets the raw value of the pixel at (x, y). Writes outside the buffer
// are dropped.
func (b *Buffer) Set16(x, y int, v uint16) {
	if i, ok := b.offset(x, y); ok {
		binary.LittleEndian.PutUint16(b.pix[i:], v)
	}
}

// Clear zeroes every pixel
func (b *Buffer) Clear() {
	for i := range b.pix {
		b.pix[i] = 0
	}
}

// ColorModel implements the image.Image interface
func (b *Buffer) ColorModel() color.Model {
	return PixelModel
}

// Bounds implements the image.Image interface
func (b *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.width, b.height)
}

// At implements the image.Image interface
func (b *Buffer) At(x, y int) color.Color {
	return Pixel(b.At16(x, y))
}

// Set implements the draw.Image interface
func (b *Buffer) Set(x, y int, c color.Color) {
	b.Set16(x, y, uint16(pixelModel(c).(Pixel)))
}

// row returns the bytes of row y, which must be in range
func (b *Buffer) row(y int) []byte {
	return b.pix[y*b.stride : y*b.stride+b.width*bytesPerPixel]
}
