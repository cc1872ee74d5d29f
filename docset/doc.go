// Package docset provides segment-local document sets.
//
// A DocSet answers "is this local row a member?" for exactly one segment.
// Row ids from different segments live in disjoint id spaces and must never
// be mixed in one DocSet.
//
// Two implementations are provided:
//
//   - Bitmap: immutable roaring bitmap. Produced by filter compilation and
//     published through the filter cache; safe for concurrent readers.
//   - Dense: reusable dense bitset with O(1) Contains. Collectors load the
//     current segment's Bitmap into a pooled Dense so that the per-document
//     hot path is a single word test.
//
// Example:
//
//	d := docset.GetDense(seg.MaxDoc())
//	defer docset.PutDense(d)
//
//	d.Load(bitmap)
//	if d.Contains(row) {
//	    count++
//	}
package docset
