// Package facet implements filtered-count facet collection.
//
// A FilterFacet counts how many documents matched by a query also satisfy
// the facet's filter. It runs one of two strategies, chosen once per query
// by SelectStrategy:
//
//   - StrategyGlobal: a GlobalOptimizedCollector composes the facet filter
//     with the query, context and type filters and asks the searcher for a
//     single whole-index count.
//   - StrategySegmentScan: a SegmentScanCollector materializes the facet's
//     live-document set per segment and counts each collected row that is a
//     member.
//
// Both strategies return the same count. When the global path fails with
// an index access error the facet falls back to segment scanning.
package facet
