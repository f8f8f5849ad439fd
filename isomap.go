/*
Package isomap is a library for rendering isometric tile maps and their
thumbnails.

Raw tile records and the object layer of each block are read from a Source
such as an Archive. Decoded tiles are shared between renders through a
cache and objects that overflow their block are drawn by the neighbour they
overflow into.
*/
package isomap

import (
	"errors"
	"io/ioutil"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/bodgit/isomap/block"
	"github.com/bodgit/isomap/cache"
	"github.com/bodgit/isomap/iso"
	"github.com/bodgit/isomap/overflow"
	"github.com/bodgit/isomap/render"
	"github.com/bodgit/isomap/tile"
	"github.com/sirupsen/logrus"
)

// Source supplies raw tile records and blocks
type Source interface {
	cache.Lookup
	Blocks() ([]*block.Block, error)
}

// Options configures a Renderer
type Options struct {
	// Workers is the number of blocks rendered at once by RenderAll
	Workers int
	// Cache sizes the decoded tile cache
	Cache cache.Config
	// Parallel draws objects sharing a layer concurrently
	Parallel bool
	Logger   logrus.FieldLogger
}

const defaultWorkers = 4

var errUnknownBlock = errors.New("isomap: unknown block")

// Renderer renders the blocks of a map
type Renderer struct {
	source     Source
	cache      *cache.Cache
	compositor render.Compositor
	logger     logrus.FieldLogger
	workers    int

	index atomic.Pointer[overflow.Index]

	mu     sync.RWMutex
	blocks map[block.Coord]*block.Block
}

// New returns a Renderer reading from source. Call Load before rendering.
func New(source Source, opts Options) (*Renderer, error) {
	logger := opts.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(ioutil.Discard)
		logger = l
	}

	c, err := cache.New(source, opts.Cache, logger)
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	return &Renderer{
		source: source,
		cache:  c,
		compositor: render.Compositor{
			Tiles:    c,
			Logger:   logger,
			Parallel: opts.Parallel,
		},
		logger:  logger,
		workers: workers,
		blocks:  make(map[block.Coord]*block.Block),
	}, nil
}

// Load reads every block from the source and builds the overflow index
func (r *Renderer) Load() error {
	blocks, err := r.source.Blocks()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.blocks = make(map[block.Coord]*block.Block, len(blocks))
	for _, b := range blocks {
		r.blocks[b.Coord] = b
	}
	r.reindex()

	r.logger.WithFields(logrus.Fields{
		"blocks":   len(blocks),
		"overflow": r.Index().Len(),
	}).Info("map loaded")

	return nil
}

func (r *Renderer) sortedBlocks() []*block.Block {
	blocks := make([]*block.Block, 0, len(r.blocks))
	for _, b := range r.blocks {
		blocks = append(blocks, b)
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Coord.Less(blocks[j].Coord) })
	return blocks
}

func (r *Renderer) reindex() {
	r.index.Store(overflow.Build(r.sortedBlocks()))
}

// Reindex rebuilds the overflow index from the current blocks. Renders
// already running keep using the previous index.
func (r *Renderer) Reindex() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reindex()
}

// ReplaceBlock swaps in an edited block and patches the overflow index to
// match
func (r *Renderer) ReplaceBlock(b *block.Block) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocks[b.Coord] = b
	r.index.Store(r.Index().Replace(b))
}

// Index returns the current overflow index
func (r *Renderer) Index() *overflow.Index {
	return r.index.Load()
}

// Block returns the block at c
func (r *Renderer) Block(c block.Coord) (*block.Block, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.blocks[c]
	return b, ok
}

// Coords returns the coordinates of every block that has something to
// draw, including blocks that only receive overflowing objects
func (r *Renderer) Coords() []block.Coord {
	r.mu.RLock()
	seen := make(map[block.Coord]struct{}, len(r.blocks))
	for c := range r.blocks {
		seen[c] = struct{}{}
	}
	r.mu.RUnlock()

	for _, c := range r.Index().Targets() {
		seen[c] = struct{}{}
	}

	coords := make([]block.Coord, 0, len(seen))
	for c := range seen {
		coords = append(coords, c)
	}
	sort.Slice(coords, func(i, j int) bool { return coords[i].Less(coords[j]) })
	return coords
}

// NewBuffer returns a buffer large enough for a whole block
func NewBuffer() *render.Buffer {
	return render.NewBuffer(iso.BlockWidth, iso.BlockHeight)
}

// RenderBlock draws the block at c into dst
func (r *Renderer) RenderBlock(c block.Coord, dst *render.Buffer) (render.Stats, error) {
	idx := r.Index()

	b, ok := r.Block(c)
	if !ok {
		if len(idx.Entries(c)) == 0 {
			return render.Stats{}, errUnknownBlock
		}
		b = block.New(c)
	}

	stats := r.compositor.Render(b, idx, dst)
	if stats.Skipped > 0 {
		r.logger.WithFields(logrus.Fields{
			"block":   c,
			"skipped": stats.Skipped,
		}).Warn("objects skipped")
	}

	return stats, nil
}

// Invalidate drops the decoded tile for key so the next render decodes it
// again
func (r *Renderer) Invalidate(key tile.Key) {
	r.cache.Invalidate(key)
}

// InvalidateAll drops every decoded tile
func (r *Renderer) InvalidateAll() {
	r.cache.Clear()
}

// Close releases the tile cache
func (r *Renderer) Close() error {
	r.cache.Close()
	return nil
}
