// Package filtercache provides the shared filter cache used by facet
// collection.
//
// Entries are keyed by the filter's canonical key, the segment id and the
// tombstone generation of the LiveDocs snapshot the bitmap was restricted to.
// A delete bumps the generation, so stale entries are never served; they age
// out of the LRU or are dropped with Invalidate.
package filtercache
