package facet

import (
	"github.com/hupe1980/facetcount/search"
)

// Strategy is the collection path chosen for one facet of one query.
type Strategy uint8

const (
	// StrategySegmentScan visits every outer match and tests membership per segment.
	StrategySegmentScan Strategy = iota
	// StrategyGlobal runs one whole-index count query.
	StrategyGlobal
)

func (s Strategy) String() string {
	switch s {
	case StrategySegmentScan:
		return "segment_scan"
	case StrategyGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// Eligible reports whether f can be counted by the global path under sc:
// only counts are required, no other facet needs per-document access, a
// searcher and filter cache are available, and the searcher can evaluate
// the composite predicate.
func Eligible(sc *search.Context, f Facet) bool {
	_, ok := globalPredicate(sc, f)
	return ok
}

// globalPredicate returns the composite predicate of f when f is eligible.
func globalPredicate(sc *search.Context, f Facet) (search.Predicate, bool) {
	if sc == nil || sc.Scoring() || sc.Interleaved() {
		return nil, false
	}
	if sc.Searcher() == nil || sc.FilterCache() == nil {
		return nil, false
	}
	p, err := NewGlobalOptimizedCollector(f).Predicate(sc)
	if err != nil || !search.CanCount(sc.Searcher(), p) {
		return nil, false
	}
	return p, true
}

// SelectStrategy picks the strategy for f under sc.
func SelectStrategy(sc *search.Context, f Facet) Strategy {
	if Eligible(sc, f) {
		return StrategyGlobal
	}
	return StrategySegmentScan
}
