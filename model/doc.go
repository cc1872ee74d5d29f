// Package model defines core types used throughout facetcount.
//
// # Identity Types
//
//   - SegmentID: Unique identifier for a segment (uint64)
//   - RowID: Segment-local document identifier (uint32)
//   - Location: (SegmentID, RowID) pair; row ids are never compared across segments
//
// # Results
//
//   - FacetResult: immutable (name, count) produced by a facet collector
package model
