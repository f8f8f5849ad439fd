/*
Package block defines the map block and the objects placed on it.

A block is addressed by its position in the map and holds the object layer
for a nominal grid of 128 columns by 64 rows. An object may be stored with
coordinates past that bound, in which case it is drawn in a neighbouring
block instead.
*/
package block

import (
	"fmt"

	"github.com/bodgit/isomap/iso"
	"github.com/bodgit/isomap/tile"
)

// Coord is the position of a block in the map
type Coord struct {
	X, Y int
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Less orders coordinates by row then column
func (c Coord) Less(o Coord) bool {
	if c.Y != o.Y {
		return c.Y < o.Y
	}
	return c.X < o.X
}

// Object is a single tile placed on a block. The coordinates are unsigned
// so an object can never sit before the start of its block.
type Object struct {
	X, Y  uint16
	Key   tile.Key
	Layer int
	Seq   uint64
}

// Local reports whether the object lies within the nominal bounds of its
// block
func (o Object) Local() bool {
	return o.X < iso.Columns && o.Y < iso.Rows
}

// Block is the object layer of one map block
type Block struct {
	Coord   Coord
	Objects []Object
}

// New returns an empty block at c
func New(c Coord) *Block {
	return &Block{Coord: c}
}

// Add places an object on the block giving it the next sequence number
// after the last object already present
func (b *Block) Add(o Object) {
	if n := len(b.Objects); n > 0 && o.Seq <= b.Objects[n-1].Seq {
		o.Seq = b.Objects[n-1].Seq + 1
	}
	b.Objects = append(b.Objects, o)
}
