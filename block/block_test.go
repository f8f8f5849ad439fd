package block

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoordLess(t *testing.T) {
	coords := []Coord{{2, 1}, {0, 2}, {1, 1}, {5, 0}}
	sort.Slice(coords, func(i, j int) bool { return coords[i].Less(coords[j]) })
	assert.Equal(t, []Coord{{5, 0}, {1, 1}, {2, 1}, {0, 2}}, coords)
	assert.Equal(t, "(5,0)", coords[0].String())
}

func TestObjectLocal(t *testing.T) {
	assert.True(t, Object{X: 127, Y: 63}.Local())
	assert.False(t, Object{X: 128, Y: 0}.Local())
	assert.False(t, Object{X: 0, Y: 64}.Local())
}

func TestBlockAdd(t *testing.T) {
	b := New(Coord{1, 2})
	b.Add(Object{X: 1, Seq: 10})
	b.Add(Object{X: 2})
	b.Add(Object{X: 3, Seq: 20})
	b.Add(Object{X: 4, Seq: 5})

	var seqs []uint64
	for _, o := range b.Objects {
		seqs = append(seqs, o.Seq)
	}
	assert.Equal(t, []uint64{10, 11, 20, 21}, seqs)
}
