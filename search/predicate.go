package search

import (
	"context"

	"github.com/hupe1980/facetcount/docset"
	"github.com/hupe1980/facetcount/filter"
	"github.com/hupe1980/facetcount/index"
)

// Predicate is a filter prepared for whole-index evaluation. DocSet returns
// the live rows of one segment that satisfy it.
type Predicate interface {
	// Filter returns the logical filter the predicate evaluates.
	Filter() filter.Filter
	// DocSet evaluates the predicate against seg's live documents.
	DocSet(ctx context.Context, seg index.Segment) (*docset.Bitmap, error)
}

// FilterCache compiles filters into per-segment doc sets, memoized.
//
// Implementations must publish fully-formed immutable bitmaps only, so that
// concurrent queries sharing a filter never observe a partial result.
type FilterCache interface {
	// Compile returns the live rows of seg matching f.
	Compile(ctx context.Context, f filter.Filter, seg index.Segment) (*docset.Bitmap, error)
	// CompileGlobal returns a whole-index predicate evaluated through the cache.
	CompileGlobal(f filter.Filter) Predicate
}

// NoCache is a FilterCache that compiles on every call.
type NoCache struct{}

// Compile implements FilterCache.
func (NoCache) Compile(ctx context.Context, f filter.Filter, seg index.Segment) (*docset.Bitmap, error) {
	return filter.Compile(ctx, f, seg)
}

// CompileGlobal implements FilterCache.
func (NoCache) CompileGlobal(f filter.Filter) Predicate {
	return Compile(f)
}

type compiled struct {
	f filter.Filter
}

// Compile returns an uncached predicate for f.
func Compile(f filter.Filter) Predicate {
	return compiled{f: f}
}

func (c compiled) Filter() filter.Filter { return c.f }

func (c compiled) DocSet(ctx context.Context, seg index.Segment) (*docset.Bitmap, error) {
	return filter.Compile(ctx, c.f, seg)
}

// Cached binds f to a cache. It is the building block for FilterCache.CompileGlobal.
func Cached(cache FilterCache, f filter.Filter) Predicate {
	return cached{cache: cache, f: f}
}

type cached struct {
	cache FilterCache
	f     filter.Filter
}

func (c cached) Filter() filter.Filter { return c.f }

func (c cached) DocSet(ctx context.Context, seg index.Segment) (*docset.Bitmap, error) {
	return c.cache.Compile(ctx, c.f, seg)
}

// Conjunction is the AND of several predicates. Each part keeps its own
// evaluation strategy, so cached and uncached parts can be mixed.
type Conjunction struct {
	parts []Predicate
}

// And combines predicates. Nil parts are skipped. A single part is returned as is.
func And(parts ...Predicate) Predicate {
	kept := make([]Predicate, 0, len(parts))
	for _, p := range parts {
		if p != nil {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return Compile(filter.MatchAll())
	case 1:
		return kept[0]
	}
	return &Conjunction{parts: kept}
}

// Parts returns the conjuncts.
func (c *Conjunction) Parts() []Predicate { return c.parts }

// Filter implements Predicate.
func (c *Conjunction) Filter() filter.Filter {
	fs := make([]filter.Filter, len(c.parts))
	for i, p := range c.parts {
		fs[i] = p.Filter()
	}
	return filter.And(fs...)
}

// DocSet implements Predicate.
func (c *Conjunction) DocSet(ctx context.Context, seg index.Segment) (*docset.Bitmap, error) {
	sets := make([]*docset.Bitmap, 0, len(c.parts))
	for _, p := range c.parts {
		bm, err := p.DocSet(ctx, seg)
		if err != nil {
			return nil, err
		}
		if bm.IsEmpty() {
			return docset.Empty(), nil
		}
		sets = append(sets, bm)
	}
	return docset.Intersect(sets...), nil
}

// count returns the number of live rows in seg matching p without building
// the final intersection when possible.
func count(ctx context.Context, p Predicate, seg index.Segment) (uint64, error) {
	conj, ok := p.(*Conjunction)
	if !ok {
		bm, err := p.DocSet(ctx, seg)
		if err != nil {
			return 0, err
		}
		return bm.Cardinality(), nil
	}

	sets := make([]*docset.Bitmap, 0, len(conj.parts))
	for _, part := range conj.parts {
		bm, err := part.DocSet(ctx, seg)
		if err != nil {
			return 0, err
		}
		if bm.IsEmpty() {
			return 0, nil
		}
		sets = append(sets, bm)
	}
	return docset.IntersectionCount(sets...), nil
}
