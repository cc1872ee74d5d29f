package cache

import (
	"github.com/hupe1980/facetcount/docset"
	"github.com/hupe1980/facetcount/model"
)

// Key identifies one compiled filter bitmap.
//
// Generation is the tombstone generation of the segment's LiveDocs snapshot
// the bitmap was restricted to, so a delete naturally misses older entries.
type Key struct {
	Filter     string
	SegmentID  model.SegmentID
	Generation uint64
}

// BitmapCache is a byte-bounded cache of immutable segment bitmaps.
// Returned bitmaps are shared and must be treated as read-only.
type BitmapCache interface {
	// Get returns a cached bitmap. ok=false if missing.
	Get(key Key) (b *docset.Bitmap, ok bool)
	// Set caches a bitmap.
	Set(key Key, b *docset.Bitmap)
	// Invalidate removes entries matching the predicate.
	Invalidate(predicate func(key Key) bool)
	// Stats returns cache statistics.
	Stats() (hits, misses int64)
	// Len returns the number of cached entries.
	Len() int
	// Size returns the accounted size in bytes.
	Size() int64
	// Close releases all entries.
	Close() error
}

func sizeOf(b *docset.Bitmap) int64 {
	// Map entry and list element overhead.
	const overhead = 96
	return int64(b.SizeInBytes()) + overhead
}
