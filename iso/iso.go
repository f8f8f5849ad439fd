/*
Package iso implements the isometric projection shared by every map layer.

A block is a diamond of 128 by 64 grid cells. Each cell is 48 pixels wide
and 24 pixels tall on screen, so neighbouring columns step 24 pixels right
and alternately 12 pixels up or down while rows step 24 pixels right and 12
pixels down.
*/
package iso

const (
	// Columns is the nominal number of grid columns in a block
	Columns = 128
	// Rows is the nominal number of grid rows in a block
	Rows = 64

	stepX = 24
	stepY = 12

	// BlockWidth and BlockHeight are the pixel dimensions of a rendered block
	BlockWidth  = Columns * stepX
	BlockHeight = Rows * stepX
)

// Floor division; the grid is non-negative in practice but x>>1 also does
// the right thing for negative values.
func half(x int) int {
	return x >> 1
}

// GridToPixel converts a block-local grid coordinate to the pixel position
// of the anchor of the object placed there.
func GridToPixel(x, y int) (int, int) {
	h := half(x)
	baseX := -stepX * h
	baseY := (Rows-1)*stepY - stepY*h
	return baseX + x*stepX + y*stepX, baseY + y*stepY
}
