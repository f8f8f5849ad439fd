package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/bodgit/isomap/tile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A sparse record with a single opaque pixel of value v
func record(v byte) []byte {
	return []byte{byte(tile.TypeSparse), 1, 1, 0, 1, v, 0}
}

type countingLookup struct {
	records map[tile.Key][]byte
	err     error
	calls   int64
}

func (l *countingLookup) Lookup(key tile.Key) ([]byte, error) {
	atomic.AddInt64(&l.calls, 1)
	if l.err != nil {
		return nil, l.err
	}
	if b, ok := l.records[key]; ok {
		return b, nil
	}
	return nil, tile.ErrMissing
}

func newCache(t *testing.T, lookup Lookup, entries int64) *Cache {
	c, err := New(lookup, Config{Entries: entries}, nil)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestGet(t *testing.T) {
	l := &countingLookup{records: map[tile.Key][]byte{{Set: 1, Index: 1}: record(5)}}
	c := newCache(t, l, 0)

	first, err := c.Get(tile.Key{Set: 1, Index: 1})
	require.NoError(t, err)
	v, ok := first.At(0, 0)
	assert.True(t, ok)
	assert.Equal(t, uint16(5), v)

	second, err := c.Get(tile.Key{Set: 1, Index: 1})
	require.NoError(t, err)
	assert.Same(t, first, second)

	assert.Equal(t, int64(1), atomic.LoadInt64(&l.calls))
	assert.Equal(t, int64(1), c.Decodes())
}

func TestGetOrDecode(t *testing.T) {
	c := newCache(t, nil, 0)

	lookup := LookupFunc(func(key tile.Key) ([]byte, error) {
		return record(byte(key.Index)), nil
	})

	tl, err := c.GetOrDecode(tile.Key{Index: 9}, lookup)
	require.NoError(t, err)
	v, _ := tl.At(0, 0)
	assert.Equal(t, uint16(9), v)
}

func TestFailuresCached(t *testing.T) {
	l := &countingLookup{records: map[tile.Key][]byte{{Index: 2}: {0xee}}}
	c := newCache(t, l, 0)

	for i := 0; i < 3; i++ {
		tl, err := c.Get(tile.Key{Index: 1})
		assert.Nil(t, tl)
		assert.ErrorIs(t, err, tile.ErrMissing)

		tl, err = c.Get(tile.Key{Index: 2})
		assert.Nil(t, tl)
		assert.ErrorIs(t, err, tile.ErrDecode)
	}

	assert.Equal(t, int64(2), atomic.LoadInt64(&l.calls))
	assert.Equal(t, int64(1), c.Decodes())
}

func TestTransientErrorsNotCached(t *testing.T) {
	io := errors.New("disk on fire")
	l := &countingLookup{err: io}
	c := newCache(t, l, 0)

	for i := 0; i < 2; i++ {
		tl, err := c.Get(tile.Key{Index: 1})
		assert.Nil(t, tl)
		assert.ErrorIs(t, err, io)
		assert.NotErrorIs(t, err, tile.ErrMissing)
	}
	assert.Equal(t, int64(2), atomic.LoadInt64(&l.calls))
}

func TestInvalidate(t *testing.T) {
	l := &countingLookup{records: map[tile.Key][]byte{{Index: 1}: record(1)}}
	c := newCache(t, l, 0)

	_, err := c.Get(tile.Key{Index: 1})
	require.NoError(t, err)

	l.records[tile.Key{Index: 1}] = record(2)
	c.Invalidate(tile.Key{Index: 1})
	c.Wait()

	tl, err := c.Get(tile.Key{Index: 1})
	require.NoError(t, err)
	v, _ := tl.At(0, 0)
	assert.Equal(t, uint16(2), v)

	l.records[tile.Key{Index: 1}] = record(3)
	c.Clear()

	tl, err = c.Get(tile.Key{Index: 1})
	require.NoError(t, err)
	v, _ = tl.At(0, 0)
	assert.Equal(t, uint16(3), v)
}

func TestEviction(t *testing.T) {
	l := &countingLookup{records: make(map[tile.Key][]byte)}
	for i := 0; i < 16; i++ {
		l.records[tile.Key{Index: uint16(i)}] = record(byte(i))
	}
	c := newCache(t, l, 2)

	first := make(map[tile.Key]*tile.Tile)
	for k := range l.records {
		tl, err := c.Get(k)
		require.NoError(t, err)
		first[k] = tl
	}

	// Whatever was evicted decodes to an identical tile
	for k, want := range first {
		tl, err := c.Get(k)
		require.NoError(t, err)
		assert.Equal(t, want, tl)
	}
}

func TestConcurrent(t *testing.T) {
	l := &countingLookup{records: make(map[tile.Key][]byte)}
	for i := 0; i < 8; i++ {
		l.records[tile.Key{Index: uint16(i)}] = record(byte(i + 1))
	}
	c := newCache(t, l, 0)

	var wg sync.WaitGroup
	results := make([][]*tile.Tile, 16)
	for g := range results {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 8; i++ {
				tl, err := c.Get(tile.Key{Index: uint16(i)})
				if err == nil {
					results[g] = append(results[g], tl)
				}
			}
		}(g)
	}
	wg.Wait()

	for _, r := range results {
		require.Len(t, r, 8)
		for i, tl := range r {
			assert.Equal(t, results[0][i], tl)
		}
	}
}
