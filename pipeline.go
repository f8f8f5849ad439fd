package isomap

import (
	"context"
	"errors"
	"image"
	"sync"

	"github.com/bodgit/isomap/block"
	"github.com/bodgit/isomap/iso"
	"github.com/bodgit/isomap/render"
	"github.com/bodgit/isomap/thumbnail"
	"github.com/sirupsen/logrus"
)

// Result is a single rendered block
type Result struct {
	Coord  block.Coord
	Buffer *render.Buffer
	Stats  render.Stats
}

func (r *Renderer) findBlocks(ctx context.Context, coords []block.Coord) (<-chan block.Coord, <-chan error, error) {
	out := make(chan block.Coord)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for _, c := range coords {
			if ctx.Err() != nil {
				errc <- errors.New("render cancelled")
				return
			}
			select {
			case out <- c:
			case <-ctx.Done():
				errc <- errors.New("render cancelled")
				return
			}
		}
	}()
	return out, errc, nil
}

// Each worker owns its buffer so workers never share pixels. A block is
// always rendered to completion once started.
func (r *Renderer) blockWorker(ctx context.Context, in <-chan block.Coord, fn func(Result) error) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		buf := NewBuffer()
		for c := range in {
			buf.Clear()

			stats, err := r.RenderBlock(c, buf)
			if err != nil {
				errc <- err
				return
			}

			r.logger.WithFields(logrus.Fields{
				"block":   c,
				"drawn":   stats.Drawn,
				"skipped": stats.Skipped,
			}).Debug("block rendered")

			if err := fn(Result{Coord: c, Buffer: buf, Stats: stats}); err != nil {
				errc <- err
				return
			}

			if ctx.Err() != nil {
				return
			}
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// RenderAll renders every block and passes each result to fn. Blocks are
// rendered by several workers at once so fn must be safe for concurrent
// use; the buffer in a Result is reused once fn returns. Cancelling ctx
// stops new blocks from being started.
func (r *Renderer) RenderAll(ctx context.Context, fn func(Result) error) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	var errcList []<-chan error

	coords, errc, err := r.findBlocks(ctx, r.Coords())
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < r.workers; i++ {
		errc, err := r.blockWorker(ctx, coords, fn)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(errcList...)
}

// Thumbnails renders every block and collects a thumbnail of each, no
// bigger than size pixels in either dimension, into a pack
func (r *Renderer) Thumbnails(ctx context.Context, size int) (*thumbnail.Pack, error) {
	w, h := thumbnail.Fit(image.Rect(0, 0, iso.BlockWidth, iso.BlockHeight), size)

	var mu sync.Mutex
	pack := thumbnail.NewPack()

	if err := r.RenderAll(ctx, func(res Result) error {
		m, err := thumbnail.Generate(res.Buffer, w, h)
		if err != nil {
			return err
		}

		mu.Lock()
		defer mu.Unlock()
		return pack.Set(res.Coord, m)
	}); err != nil {
		return nil, err
	}

	return pack, nil
}
