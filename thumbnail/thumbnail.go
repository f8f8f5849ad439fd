/*
Package thumbnail creates small paletted previews of rendered blocks and
stores them in a single binary pack.

A pack starts with the four bytes "ISTH" and a 32-bit count of entries. Each
entry is the signed 32-bit X and Y of the block followed by the 32-bit
length of a PNG image, the IEEE CRC-32 of the image and the image itself. Entries are sorted by block
row then column and all integers are little-endian.
*/
package thumbnail

import (
	"errors"
	"image"
	"image/color"

	"github.com/ericpauley/go-quantize/quantize"
	"golang.org/x/image/draw"
)

const maxColors = 256

var errBadSize = errors.New("thumbnail: invalid size")

// Fit returns the largest size no bigger than max in either dimension that
// keeps the aspect ratio of r
func Fit(r image.Rectangle, max int) (int, int) {
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 || max <= 0 {
		return 0, 0
	}
	if w >= h {
		if h = h * max / w; h == 0 {
			h = 1
		}
		return max, h
	}
	if w = w * max / h; w == 0 {
		w = 1
	}
	return w, max
}

// Generate scales m to width by height pixels and reduces it to at most 256
// colors
func Generate(m image.Image, width, height int) (*image.Paletted, error) {
	if width <= 0 || height <= 0 || m.Bounds().Empty() {
		return nil, errBadSize
	}

	r := image.Rect(0, 0, width, height)
	scaled := image.NewRGBA(r)
	draw.ApproxBiLinear.Scale(scaled, r, m, m.Bounds(), draw.Src, nil)

	q := quantize.MedianCutQuantizer{}
	pm := image.NewPaletted(r, q.Quantize(make(color.Palette, 0, maxColors), scaled))
	draw.Draw(pm, r, scaled, image.Point{}, draw.Src)

	return pm, nil
}
