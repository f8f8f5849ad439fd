package render

import (
	"sort"

	"github.com/bodgit/isomap/block"
	"github.com/bodgit/isomap/overflow"
	"github.com/bodgit/isomap/tile"
)

// Item is a single object to draw, with coordinates already translated into
// the destination block
type Item struct {
	Key    tile.Key
	X, Y   int
	Layer  int
	Seq    uint64
	Source block.Coord

	n int
}

func (a Item) less(b Item) bool {
	switch {
	case a.Layer != b.Layer:
		return a.Layer < b.Layer
	case a.Seq != b.Seq:
		return a.Seq < b.Seq
	case a.Source != b.Source:
		return a.Source.Less(b.Source)
	default:
		return a.n < b.n
	}
}

// DrawList is the sorted sequence of items drawn into one block
type DrawList []Item

// NewDrawList merges the local objects of b with the overflow entries
// targeting it and sorts them by layer, then by sequence number. Any
// remaining tie is broken by source block and then by position in the
// merged input, so the result never depends on sort stability.
func NewDrawList(b *block.Block, entries []overflow.Entry) DrawList {
	list := make(DrawList, 0, len(b.Objects)+len(entries))
	for _, o := range b.Objects {
		list = append(list, Item{
			Key:    o.Key,
			X:      int(o.X),
			Y:      int(o.Y),
			Layer:  o.Layer,
			Seq:    o.Seq,
			Source: b.Coord,
			n:      len(list),
		})
	}
	for _, e := range entries {
		list = append(list, Item{
			Key:    e.Object.Key,
			X:      int(e.X),
			Y:      int(e.Y),
			Layer:  e.Object.Layer,
			Seq:    e.Object.Seq,
			Source: e.Source.Coord,
			n:      len(list),
		})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].less(list[j]) })
	return list
}

// Batches splits the list into runs of items sharing the same layer
func (l DrawList) Batches() []DrawList {
	var batches []DrawList
	for start := 0; start < len(l); {
		end := start + 1
		for end < len(l) && l[end].Layer == l[start].Layer {
			end++
		}
		batches = append(batches, l[start:end:end])
		start = end
	}
	return batches
}
