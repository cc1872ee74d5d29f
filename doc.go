// Package facetcount counts filter facets over a segmented document index.
//
// A filter facet reports how many documents matching the main query also
// satisfy the facet's filter. Each facet chooses one of two strategies:
//
//   - segment scan: the facet filter is compiled per segment and every
//     matching document of the query is tested against it.
//   - global: when nothing else needs per-document access, the facet filter
//     is combined with the query and counted in one call to a searcher.
//
// Both strategies return the same count. When the global count fails with an
// index access error the engine falls back to the segment scan.
//
// # Quick Start
//
//	ctx := context.Background()
//	store, _ := blobstore.NewLocalStore("./data")
//	eng, _ := facetcount.Open(ctx, store, "catalog")
//	defer eng.Close()
//
//	results, _ := eng.Facets().
//	    Query(filter.NewTerm("category", metadata.String("books"))).
//	    Filter("in_stock", filter.NewTerm("in_stock", metadata.Bool(true))).
//	    Execute(ctx)
//
// # Searchers
//
// The global strategy needs a searcher that can count a predicate:
//
//	facetcount.WithSearcher(facetcount.SearcherIndex) // posting lists of the segments (default)
//	facetcount.WithSearcher(facetcount.SearcherBluge) // an in-memory bluge mirror
//	facetcount.WithSearcher(facetcount.SearcherNone)  // segment scan only
//
// # Filter Cache
//
// Compiled filters are cached per segment and tombstone generation, so
// deleting documents never serves a stale bitmap. Use WithFilterCacheCapacity
// to bound its memory or WithoutFilterCache to disable it.
//
// # Deletes
//
//	eng.Delete(ctx, segmentID, 3, 7)
//
// Deleted rows are excluded from every later count on both strategies.
package facetcount
