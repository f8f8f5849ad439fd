package thumbnail

import (
	"image"
	"image/color"
	"testing"

	"github.com/bodgit/isomap/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFit(t *testing.T) {
	tables := []struct {
		r    image.Rectangle
		max  int
		w, h int
	}{
		{image.Rect(0, 0, 3072, 1536), 256, 256, 128},
		{image.Rect(0, 0, 100, 400), 200, 50, 200},
		{image.Rect(0, 0, 1000, 1), 10, 10, 1},
		{image.Rect(0, 0, 0, 10), 10, 0, 0},
	}
	for _, table := range tables {
		w, h := Fit(table.r, table.max)
		assert.Equal(t, table.w, w)
		assert.Equal(t, table.h, h)
	}
}

func TestGenerate(t *testing.T) {
	m := image.NewRGBA(image.Rect(0, 0, 64, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 64; x++ {
			c := color.RGBA{0xff, 0, 0, 0xff}
			if x >= 32 {
				c = color.RGBA{0, 0, 0xff, 0xff}
			}
			m.Set(x, y, c)
		}
	}

	pm, err := Generate(m, 16, 8)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 8), pm.Bounds())
	assert.True(t, len(pm.Palette) <= maxColors)

	r, _, b, _ := pm.At(1, 4).RGBA()
	assert.True(t, r > b)
	r, _, b, _ = pm.At(14, 4).RGBA()
	assert.True(t, b > r)

	_, err = Generate(m, 0, 8)
	assert.Equal(t, errBadSize, err)
}

func TestPack(t *testing.T) {
	p := NewPack()
	assert.Equal(t, 0, p.Length())

	m := image.NewGray(image.Rect(0, 0, 2, 2))
	m.SetGray(1, 1, color.Gray{0x80})
	require.NoError(t, p.Set(block.Coord{X: 1, Y: 0}, m))
	require.NoError(t, p.Set(block.Coord{X: -3, Y: 2}, m))
	assert.Equal(t, 2, p.Length())

	b, err := p.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte("ISTH"), b[:4])
	assert.Equal(t, []byte{2, 0, 0, 0}, b[4:8])
	// First entry is the lower row
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0}, b[8:16])

	q := NewPack()
	require.NoError(t, q.UnmarshalBinary(b))
	assert.Equal(t, []block.Coord{{X: 1, Y: 0}, {X: -3, Y: 2}}, q.Coords())

	got, err := q.Get(block.Coord{X: -3, Y: 2})
	require.NoError(t, err)
	assert.Equal(t, color.Gray{0x80}, color.GrayModel.Convert(got.At(1, 1)))

	got, err = q.Get(block.Coord{X: 9, Y: 9})
	assert.NoError(t, err)
	assert.Nil(t, got)

	assert.Equal(t, errBadMagic, q.UnmarshalBinary([]byte("NOPE")))
	assert.Error(t, q.UnmarshalBinary(b[:len(b)-1]))
	assert.Error(t, q.UnmarshalBinary(append(b, 0)))

	corrupt := append([]byte(nil), b...)
	corrupt[len(corrupt)-1] ^= 0xff
	assert.Equal(t, errBadChecksum, q.UnmarshalBinary(corrupt))
}
