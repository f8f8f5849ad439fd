/*
Package render composites decoded tiles into pixel buffers.

Rendering a block draws its own objects merged with any objects that
overflow into it from neighbouring blocks. Objects are drawn strictly in
layer order with ties broken by sequence number so the result is the same
no matter how the inputs were gathered. Tiles that cannot be resolved are
skipped; pixels falling outside the buffer are clipped.
*/
package render

import (
	"io/ioutil"

	"github.com/bodgit/isomap/block"
	"github.com/bodgit/isomap/overflow"
	"github.com/bodgit/isomap/tile"
	"github.com/sirupsen/logrus"
)

// Resolver returns the decoded tile for a key. It must be safe for
// concurrent use.
type Resolver interface {
	Get(key tile.Key) (*tile.Tile, error)
}

// Stats records what happened during a render
type Stats struct {
	Drawn   int
	Skipped int
}

var discard = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(ioutil.Discard)
	return l
}()

// RenderBlock draws b, plus the entries idx holds for it, into dst using
// tiles to resolve each object
func RenderBlock(b *block.Block, idx *overflow.Index, tiles Resolver, dst *Buffer) Stats {
	c := Compositor{Tiles: tiles}
	return c.Render(b, idx, dst)
}
