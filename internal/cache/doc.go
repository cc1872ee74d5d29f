// Package cache provides byte-bounded LRU caches for compiled segment bitmaps.
//
// Entries are immutable *docset.Bitmap values published once and read by any
// number of concurrent queries. Memory is optionally accounted against a
// resource.Controller shared with the rest of the engine.
package cache
