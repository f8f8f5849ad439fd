package isomap

import (
	"path/filepath"
	"testing"

	"github.com/bodgit/isomap/block"
	"github.com/bodgit/isomap/tile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newArchive(t *testing.T) *Archive {
	a, err := NewArchive(filepath.Join(t.TempDir(), "map.db"))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestArchiveTiles(t *testing.T) {
	a := newArchive(t)

	raw := []byte{byte(tile.TypeSparse), 1, 1, 3, 2, 0x34, 0x12, 0x78, 0x56}
	require.NoError(t, a.AddTile(tile.Key{Set: 2, Index: 7}, raw))

	got, err := a.Lookup(tile.Key{Set: 2, Index: 7})
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	_, err = a.Lookup(tile.Key{Set: 7, Index: 2})
	assert.Equal(t, tile.ErrMissing, err)

	require.NoError(t, a.AddTile(tile.Key{Set: 2, Index: 7}, raw[:2]))
	got, err = a.Lookup(tile.Key{Set: 2, Index: 7})
	require.NoError(t, err)
	assert.Equal(t, raw[:2], got)
}

func TestArchiveBlocks(t *testing.T) {
	a := newArchive(t)

	require.NoError(t, a.AddBlock(&block.Block{
		Coord: block.Coord{X: 1, Y: 0},
		Objects: []block.Object{
			{X: 3, Y: 4, Key: tile.Key{Set: 1, Index: 2}, Layer: 1, Seq: 5},
			{X: 200, Y: 1, Key: tile.Key{Set: 1, Index: 3}, Layer: -2, Seq: 4},
		},
	}))
	require.NoError(t, a.AddBlock(block.New(block.Coord{X: 0, Y: 0})))
	require.NoError(t, a.AddBlock(&block.Block{
		Coord:   block.Coord{X: -1, Y: 2},
		Objects: []block.Object{{X: 1, Y: 1, Seq: 1}},
	}))

	blocks, err := a.Blocks()
	require.NoError(t, err)
	require.Len(t, blocks, 3)

	assert.Equal(t, block.Coord{X: 0, Y: 0}, blocks[0].Coord)
	assert.Empty(t, blocks[0].Objects)

	assert.Equal(t, block.Coord{X: 1, Y: 0}, blocks[1].Coord)
	assert.Equal(t, []block.Object{
		{X: 200, Y: 1, Key: tile.Key{Set: 1, Index: 3}, Layer: -2, Seq: 4},
		{X: 3, Y: 4, Key: tile.Key{Set: 1, Index: 2}, Layer: 1, Seq: 5},
	}, blocks[1].Objects)

	assert.Equal(t, block.Coord{X: -1, Y: 2}, blocks[2].Coord)

	// Replacing a block replaces its objects
	require.NoError(t, a.AddBlock(&block.Block{
		Coord:   block.Coord{X: 1, Y: 0},
		Objects: []block.Object{{X: 9, Y: 9, Seq: 10}},
	}))
	blocks, err = a.Blocks()
	require.NoError(t, err)
	require.Len(t, blocks, 3)
	assert.Equal(t, []block.Object{{X: 9, Y: 9, Seq: 10}}, blocks[1].Objects)

	require.NoError(t, a.Reset())
	blocks, err = a.Blocks()
	require.NoError(t, err)
	assert.Empty(t, blocks)
}
