// Package filter defines the predicates facets count with.
//
// A Filter is stateless and reusable: Match evaluates it against one segment
// and Compile turns that into an immutable docset.Bitmap restricted to the
// segment's live documents.
//
//	f := filter.And(
//	    filter.NewTerm("genre", metadata.String("rock")),
//	    filter.NewField("year", metadata.OpGreaterEqual, metadata.Int(2000)),
//	)
//	bm, err := filter.Compile(ctx, f, seg)
//
// Filters identify themselves with Key, which caches use to share compiled
// bitmaps across queries.
package filter
