package filtercache

import (
	"context"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/facetcount/docset"
	"github.com/hupe1980/facetcount/filter"
	"github.com/hupe1980/facetcount/index"
	"github.com/hupe1980/facetcount/internal/cache"
	"github.com/hupe1980/facetcount/internal/resource"
	"github.com/hupe1980/facetcount/model"
	"github.com/hupe1980/facetcount/search"
)

// DefaultCapacity is the default cache size in bytes.
const DefaultCapacity = 64 << 20

// Options configures a Cache.
type Options struct {
	// Capacity bounds the cached bitmap bytes. Defaults to DefaultCapacity.
	Capacity int64
	// Resource accounts cached bytes against a shared memory budget. May be nil.
	Resource *resource.Controller
}

// Stats is a point-in-time view of cache usage.
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
	Bytes   int64 `json:"bytes"`
}

// HitRatio returns hits / (hits + misses), or 0 before the first lookup.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache memoizes compiled filter bitmaps per (filter, segment, tombstone generation).
// It is safe for concurrent use by any number of queries.
type Cache struct {
	lru   cache.BitmapCache
	group singleflight.Group
}

// New creates a Cache.
func New(opts Options) *Cache {
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{lru: cache.NewShardedLRU(capacity, opts.Resource)}
}

// Compile implements search.FilterCache.
//
// Concurrent misses on the same key compile once. The shared compilation is
// detached from the caller that started it, so cancelling one query never
// fails another waiting on the same key. Failed compilations are not cached.
func (c *Cache) Compile(ctx context.Context, f filter.Filter, seg index.Segment) (*docset.Bitmap, error) {
	live := seg.LiveDocs()
	key := cache.Key{Filter: f.Key(), SegmentID: seg.ID(), Generation: live.Generation()}

	if bm, ok := c.lru.Get(key); ok {
		return bm, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flightKey(key), func() (any, error) {
		if bm, ok := c.lru.Get(key); ok {
			return bm, nil
		}
		bm, err := filter.CompileLive(flightCtx, f, seg, live)
		if err != nil {
			return nil, err
		}
		c.lru.Set(key, bm)
		return bm, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*docset.Bitmap), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// CompileGlobal implements search.FilterCache.
func (c *Cache) CompileGlobal(f filter.Filter) search.Predicate {
	return search.Cached(c, f)
}

// Invalidate drops every entry of segment id.
func (c *Cache) Invalidate(id model.SegmentID) {
	c.lru.Invalidate(func(k cache.Key) bool { return k.SegmentID == id })
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.lru.Invalidate(func(cache.Key) bool { return true })
}

// Stats returns current usage.
func (c *Cache) Stats() Stats {
	hits, misses := c.lru.Stats()
	return Stats{
		Hits:    hits,
		Misses:  misses,
		Entries: c.lru.Len(),
		Bytes:   c.lru.Size(),
	}
}

// Close releases all entries and their memory reservation.
func (c *Cache) Close() error {
	return c.lru.Close()
}

func flightKey(k cache.Key) string {
	return strconv.FormatUint(uint64(k.SegmentID), 10) + "/" +
		strconv.FormatUint(k.Generation, 10) + "/" + k.Filter
}

var _ search.FilterCache = (*Cache)(nil)
