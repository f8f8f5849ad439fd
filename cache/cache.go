/*
Package cache memoizes decoded tiles.

Decoding is a pure function of the raw record so a cached tile can be
evicted and decoded again without any visible difference. Concurrent misses
for the same key are collapsed so each key is decoded once per miss. Records
that are missing or fail to decode are cached as failures; any other lookup
error is assumed to be transient and is not cached.

The cache never notices changes to the underlying records. Callers that
modify tile data must call Invalidate or Clear before the next render.
*/
package cache

import (
	"errors"
	"fmt"
	"io/ioutil"
	"sync/atomic"

	"github.com/bodgit/isomap/tile"
	"github.com/dgraph-io/ristretto/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Lookup supplies raw tile records. It returns tile.ErrMissing if no record
// exists for the key.
type Lookup interface {
	Lookup(key tile.Key) ([]byte, error)
}

// LookupFunc adapts a function to the Lookup interface
type LookupFunc func(key tile.Key) ([]byte, error)

// Lookup calls f(key)
func (f LookupFunc) Lookup(key tile.Key) ([]byte, error) {
	return f(key)
}

// Config controls the size of the cache
type Config struct {
	// Entries is the maximum number of tiles, or failures, held at once
	Entries int64
	// Metrics enables ristretto hit/miss counters
	Metrics bool
}

// DefaultConfig holds roughly 30 MB of decoded tiles
var DefaultConfig = Config{
	Entries: 4096,
}

type entry struct {
	tile *tile.Tile
	err  error
}

// Cache maps tile keys to decoded tiles. It is safe for concurrent use.
type Cache struct {
	lookup Lookup
	logger logrus.FieldLogger
	cache  *ristretto.Cache[uint64, *entry]
	group  singleflight.Group

	decodes int64
}

// New returns a cache reading raw records from lookup. A nil logger
// discards output.
func New(lookup Lookup, cfg Config, logger logrus.FieldLogger) (*Cache, error) {
	if cfg.Entries <= 0 {
		cfg.Entries = DefaultConfig.Entries
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(ioutil.Discard)
		logger = l
	}

	c, err := ristretto.NewCache(&ristretto.Config[uint64, *entry]{
		NumCounters:        cfg.Entries * 10,
		MaxCost:            cfg.Entries,
		BufferItems:        64,
		Metrics:            cfg.Metrics,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}

	return &Cache{
		lookup: lookup,
		logger: logger,
		cache:  c,
	}, nil
}

func (c *Cache) load(key tile.Key, lookup Lookup) (interface{}, error) {
	if e, ok := c.cache.Get(key.Uint64()); ok {
		return e, nil
	}

	raw, err := lookup.Lookup(key)
	if err != nil && !errors.Is(err, tile.ErrMissing) {
		return nil, fmt.Errorf("cache: lookup %s: %w", key, err)
	}

	e := new(entry)
	if err != nil {
		e.err = err
	} else {
		atomic.AddInt64(&c.decodes, 1)
		e.tile, e.err = tile.Decode(raw)
	}
	if e.err != nil {
		c.logger.WithField("tile", key).WithError(e.err).Debug("tile unavailable")
	}

	c.cache.Set(key.Uint64(), e, 1)
	c.cache.Wait()

	return e, nil
}

// GetOrDecode returns the decoded tile for key, using lookup to fetch the
// raw record on a miss. The error matches tile.ErrMissing or tile.ErrDecode
// when the tile cannot be drawn.
func (c *Cache) GetOrDecode(key tile.Key, lookup Lookup) (*tile.Tile, error) {
	if e, ok := c.cache.Get(key.Uint64()); ok {
		return e.tile, e.err
	}

	if lookup == nil {
		lookup = c.lookup
	}
	v, err, _ := c.group.Do(key.String(), func() (interface{}, error) {
		return c.load(key, lookup)
	})
	if err != nil {
		return nil, err
	}

	e := v.(*entry)
	return e.tile, e.err
}

// Get returns the decoded tile for key using the lookup the cache was
// created with
func (c *Cache) Get(key tile.Key) (*tile.Tile, error) {
	return c.GetOrDecode(key, c.lookup)
}

// Invalidate removes a single key
func (c *Cache) Invalidate(key tile.Key) {
	c.cache.Del(key.Uint64())
}

// Clear removes every entry
func (c *Cache) Clear() {
	c.cache.Clear()
}

// Wait blocks until pending writes are visible
func (c *Cache) Wait() {
	c.cache.Wait()
}

// Decodes returns how many times a record has been decoded
func (c *Cache) Decodes() int64 {
	return atomic.LoadInt64(&c.decodes)
}

// Metrics returns the ristretto metrics, which are nil unless enabled in
// the Config
func (c *Cache) Metrics() *ristretto.Metrics {
	return c.cache.Metrics
}

// Close releases the goroutines used by the cache
func (c *Cache) Close() {
	c.cache.Close()
}
