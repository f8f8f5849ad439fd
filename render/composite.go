package render

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/bodgit/isomap/block"
	"github.com/bodgit/isomap/iso"
	"github.com/bodgit/isomap/overflow"
	"github.com/bodgit/isomap/tile"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// blend combines a blend tile pixel with the destination. The result wraps
// modulo 2^16 and never saturates.
func blend(dst, src uint16) uint16 {
	return dst + 0xffff - src
}

// Blit draws t with its top-left corner at (ox, oy). Only opaque pixels are
// written and anything outside dst is clipped.
func Blit(dst *Buffer, t *tile.Tile, ox, oy int) {
	for r := 0; r < t.Height; r++ {
		dy := oy + r
		if dy < 0 || dy >= dst.height {
			continue
		}

		run := t.Runs[r]
		if run.Count == 0 {
			continue
		}

		x0, x1 := ox+run.Start, ox+run.End()
		sx := run.Start
		if x0 < 0 {
			sx -= x0
			x0 = 0
		}
		if x1 > dst.width {
			x1 = dst.width
		}
		if x0 >= x1 {
			continue
		}

		row := dst.row(dy)
		src := r*tile.Width + sx
		for dx := x0; dx < x1; dx, src = dx+1, src+1 {
			if !t.Mask[src] {
				continue
			}
			o := dx * bytesPerPixel
			if t.Blend {
				binary.LittleEndian.PutUint16(row[o:], blend(binary.LittleEndian.Uint16(row[o:]), t.Pixels[src]))
			} else {
				binary.LittleEndian.PutUint16(row[o:], t.Pixels[src])
			}
		}
	}
}

// Compositor renders blocks into buffers
type Compositor struct {
	Tiles  Resolver
	Logger logrus.FieldLogger

	// Parallel draws the objects within each layer concurrently, waiting for
	// a layer to finish before starting the next. Objects sharing a layer
	// must not overlap.
	Parallel bool
	// Workers limits the goroutines used per layer when Parallel is set;
	// zero or less means no limit
	Workers int
}

func (c *Compositor) logger() logrus.FieldLogger {
	if c.Logger == nil {
		return discard
	}
	return c.Logger
}

func (c *Compositor) draw(item Item, dst *Buffer) bool {
	t, err := c.Tiles.Get(item.Key)
	if err != nil || t == nil {
		c.logger().WithFields(logrus.Fields{
			"tile":   item.Key,
			"source": item.Source,
			"x":      item.X,
			"y":      item.Y,
		}).WithError(err).Debug("skipping object")
		return false
	}
	px, py := iso.GridToPixel(item.X, item.Y)
	Blit(dst, t, px+t.OffsetX, py+t.OffsetY)
	return true
}

// Render draws b and the overflow entries idx holds for it into dst. Objects
// whose tile cannot be resolved are skipped and counted. It panics if dst or
// the tile resolver is nil.
func (c *Compositor) Render(b *block.Block, idx *overflow.Index, dst *Buffer) Stats {
	if dst == nil {
		panic("render: nil destination buffer")
	}
	if c.Tiles == nil {
		panic("render: nil tile resolver")
	}
	if b == nil {
		panic("render: nil block")
	}

	list := NewDrawList(b, idx.Entries(b.Coord))

	var stats Stats
	if !c.Parallel {
		for _, item := range list {
			if c.draw(item, dst) {
				stats.Drawn++
			} else {
				stats.Skipped++
			}
		}
		return stats
	}

	var drawn, skipped int64
	for _, batch := range list.Batches() {
		g := new(errgroup.Group)
		if c.Workers > 0 {
			g.SetLimit(c.Workers)
		}
		for _, item := range batch {
			item := item
			g.Go(func() error {
				if c.draw(item, dst) {
					atomic.AddInt64(&drawn, 1)
				} else {
					atomic.AddInt64(&skipped, 1)
				}
				return nil
			})
		}
		_ = g.Wait()
	}
	stats.Drawn, stats.Skipped = int(drawn), int(skipped)

	return stats
}
