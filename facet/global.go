package facet

import (
	"context"

	"github.com/hupe1980/facetcount/filter"
	"github.com/hupe1980/facetcount/search"
)

// GlobalOptimizedCollector counts a facet with a single whole-index
// count-only query instead of visiting the outer query's matches.
type GlobalOptimizedCollector struct {
	facet Facet
}

// NewGlobalOptimizedCollector creates a collector for f.
func NewGlobalOptimizedCollector(f Facet) *GlobalOptimizedCollector {
	return &GlobalOptimizedCollector{facet: f}
}

// Predicate builds the composite predicate: the facet filter, the facet
// pre-filter, the main query, and the context and type filters. The latter
// two are evaluated through the shared filter cache.
func (g *GlobalOptimizedCollector) Predicate(sc *search.Context) (search.Predicate, error) {
	cache := sc.FilterCache()
	if cache == nil {
		return nil, ErrCacheUnavailable
	}

	parts := []search.Predicate{search.Compile(g.facet.Filter)}
	if g.facet.PreFilter != nil && !filter.IsMatchAll(g.facet.PreFilter) {
		parts = append(parts, search.Compile(g.facet.PreFilter))
	}
	if q := sc.Query(); !filter.IsMatchAll(q) {
		parts = append(parts, search.Compile(q))
	}
	if cf := sc.ContextFilter(); cf != nil {
		parts = append(parts, cache.CompileGlobal(cf))
	}
	if tf := sc.TypeFilter(); tf != nil {
		parts = append(parts, cache.CompileGlobal(tf))
	}
	return search.And(parts...), nil
}

// Run builds the composite predicate and counts it through the context's
// searcher. Eligibility is the caller's responsibility.
// A missing searcher or cache yields an error matching index.ErrIndexAccess.
func (g *GlobalOptimizedCollector) Run(ctx context.Context, sc *search.Context) (uint64, error) {
	if sc.Searcher() == nil {
		return 0, ErrSearcherUnavailable
	}
	p, err := g.Predicate(sc)
	if err != nil {
		return 0, err
	}
	return g.Count(ctx, sc, p)
}

// Count runs p, a predicate built by Predicate, once through the context's searcher.
func (g *GlobalOptimizedCollector) Count(ctx context.Context, sc *search.Context, p search.Predicate) (uint64, error) {
	s := sc.Searcher()
	if s == nil {
		return 0, ErrSearcherUnavailable
	}
	return s.Count(ctx, p)
}
