package isomap

import (
	"image"
	"image/color"
	"image/png"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/isomap/block"
	"github.com/bodgit/isomap/tile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifest = `<?xml version="1.0"?>
<Map>
  <Tile Set="1" Index="1" Image="images\floor.png" X="-2" Y="3"/>
  <Tile Set="1" Index="2" Image="images/floor.png" Blend="true"/>
  <Tile Set="2" Index="1" Raw="raw.til"/>
  <Block X="0" Y="0">
    <Object X="1" Y="2" Set="1" Index="1" Layer="1"/>
    <Object X="130" Y="2" Set="1" Index="2"/>
  </Block>
  <Block X="1" Y="0">
    <Object X="0" Y="0" Set="2" Index="1" Layer="2"/>
  </Block>
</Map>
`

func writeManifest(t *testing.T) string {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "images"), 0755))

	m := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	m.Set(0, 0, color.NRGBA{0xff, 0, 0, 0xff})
	m.Set(2, 1, color.NRGBA{0, 0xff, 0, 0xff})
	f, err := os.Create(filepath.Join(dir, "images", "floor.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, m))
	require.NoError(t, f.Close())

	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "raw.til"), []byte{byte(tile.TypeSparse), 0}, 0644))

	file := filepath.Join(dir, "map.xml")
	require.NoError(t, ioutil.WriteFile(file, []byte(manifest), 0644))
	return file
}

func TestImportXML(t *testing.T) {
	a := newArchive(t)
	require.NoError(t, a.ImportXML(writeManifest(t)))

	raw, err := a.Lookup(tile.Key{Set: 1, Index: 1})
	require.NoError(t, err)
	tl, err := tile.Decode(raw)
	require.NoError(t, err)
	assert.False(t, tl.Blend)
	assert.Equal(t, -2, tl.OffsetX)
	assert.Equal(t, 3, tl.OffsetY)
	v, ok := tl.At(0, 0)
	assert.True(t, ok)
	assert.Equal(t, uint16(0x7c00), v)
	v, ok = tl.At(2, 1)
	assert.True(t, ok)
	assert.Equal(t, uint16(0x03e0), v)
	_, ok = tl.At(1, 0)
	assert.False(t, ok)

	raw, err = a.Lookup(tile.Key{Set: 1, Index: 2})
	require.NoError(t, err)
	tl, err = tile.Decode(raw)
	require.NoError(t, err)
	assert.True(t, tl.Blend)
	assert.Equal(t, 0, tl.OffsetX)

	raw, err = a.Lookup(tile.Key{Set: 2, Index: 1})
	require.NoError(t, err)
	assert.Equal(t, []byte{byte(tile.TypeSparse), 0}, raw)

	blocks, err := a.Blocks()
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, []block.Object{
		{X: 1, Y: 2, Key: tile.Key{Set: 1, Index: 1}, Layer: 1, Seq: 1},
		{X: 130, Y: 2, Key: tile.Key{Set: 1, Index: 2}, Seq: 2},
	}, blocks[0].Objects)
	assert.Equal(t, []block.Object{
		{X: 0, Y: 0, Key: tile.Key{Set: 2, Index: 1}, Layer: 2, Seq: 3},
	}, blocks[1].Objects)
}

func TestImportXMLMissingData(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "map.xml")
	require.NoError(t, ioutil.WriteFile(file, []byte(`<Map><Tile Set="1" Index="1"/></Map>`), 0644))

	a := newArchive(t)
	assert.Error(t, a.ImportXML(file))
}
