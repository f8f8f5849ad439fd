/*
Package overflow indexes objects that are stored in one block but drawn in
another.

An object whose local X is at least 128 or whose local Y is at least 64 is
moved by a whole number of blocks to the right and/or down, with its
coordinates translated into the target block's grid. The index maps each
target block to the objects it must additionally draw.
*/
package overflow

import (
	"sort"

	"github.com/bodgit/isomap/block"
	"github.com/bodgit/isomap/iso"
)

// Entry is an object drawn in a block other than the one that stores it
type Entry struct {
	// Source is the block that stores the object
	Source *block.Block
	Object block.Object
	// X and Y are the object coordinates translated into the target block
	X, Y uint16
}

// Index maps a target block to the entries drawn in it. An Index is never
// modified once built so it can be read by any number of renders at once.
type Index struct {
	entries map[block.Coord][]Entry
	n       int
}

func classify(b *block.Block, o block.Object) (block.Coord, Entry, bool) {
	dx, dy := o.X/iso.Columns, o.Y/iso.Rows
	if dx == 0 && dy == 0 {
		return block.Coord{}, Entry{}, false
	}
	return block.Coord{X: b.Coord.X + int(dx), Y: b.Coord.Y + int(dy)}, Entry{
		Source: b,
		Object: o,
		X:      o.X - dx*iso.Columns,
		Y:      o.Y - dy*iso.Rows,
	}, true
}

func (i *Index) add(b *block.Block) {
	for _, o := range b.Objects {
		if target, e, ok := classify(b, o); ok {
			i.entries[target] = append(i.entries[target], e)
			i.n++
		}
	}
}

// Build indexes every overflowing object in blocks. Entries for a target
// keep the order of blocks and of objects within each block.
func Build(blocks []*block.Block) *Index {
	i := &Index{
		entries: make(map[block.Coord][]Entry),
	}
	for _, b := range blocks {
		i.add(b)
	}
	return i
}

// Entries returns the entries to be drawn in the block at c. The slice must
// not be modified. It is safe to call on a nil Index.
func (i *Index) Entries(c block.Coord) []Entry {
	if i == nil {
		return nil
	}
	return i.entries[c]
}

// Len returns the total number of entries
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return i.n
}

// Targets returns every block coordinate with at least one entry, sorted
func (i *Index) Targets() []block.Coord {
	if i == nil {
		return nil
	}
	coords := make([]block.Coord, 0, len(i.entries))
	for c := range i.entries {
		coords = append(coords, c)
	}
	sort.Slice(coords, func(a, b int) bool { return coords[a].Less(coords[b]) })
	return coords
}

// Replace returns a new Index where every entry sourced from the block at
// b.Coord is replaced by a fresh classification of b. The receiver is left
// untouched so renders already using it are unaffected.
func (i *Index) Replace(b *block.Block) *Index {
	dup := &Index{
		entries: make(map[block.Coord][]Entry),
	}
	if i != nil {
		for target, entries := range i.entries {
			kept := make([]Entry, 0, len(entries))
			for _, e := range entries {
				if e.Source.Coord != b.Coord {
					kept = append(kept, e)
				}
			}
			if len(kept) > 0 {
				dup.entries[target] = kept
				dup.n += len(kept)
			}
		}
	}
	dup.add(b)
	return dup
}
