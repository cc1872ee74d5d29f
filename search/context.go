package search

import (
	"context"

	"github.com/hupe1980/facetcount/docset"
	"github.com/hupe1980/facetcount/filter"
	"github.com/hupe1980/facetcount/index"
	"github.com/hupe1980/facetcount/metadata"
)

// DefaultTypeField is the document field type filters match on.
const DefaultTypeField = "_type"

// Context is the read-only execution environment of one query.
// It is owned by the query executor; facet collectors only read from it.
type Context struct {
	reader        *index.Reader
	searcher      Searcher
	cache         FilterCache
	query         filter.Filter
	contextFilter filter.Filter
	typeField     string
	types         []string
	scoring       bool
	interleaved   bool
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithSearcher sets the searcher used for whole-index counts. Nil marks the
// searcher as unavailable.
func WithSearcher(s Searcher) ContextOption {
	return func(c *Context) { c.searcher = s }
}

// WithFilterCache sets the shared filter cache. Nil marks the cache as unavailable.
func WithFilterCache(fc FilterCache) ContextOption {
	return func(c *Context) { c.cache = fc }
}

// WithQuery sets the main query. Nil means match all.
func WithQuery(q filter.Filter) ContextOption {
	return func(c *Context) { c.query = q }
}

// WithContextFilter sets a filter applied uniformly to all facets (for example an alias filter).
func WithContextFilter(f filter.Filter) ContextOption {
	return func(c *Context) { c.contextFilter = f }
}

// WithTypes restricts the search to documents whose type field holds one of types.
func WithTypes(types ...string) ContextOption {
	return func(c *Context) { c.types = types }
}

// WithTypeField overrides DefaultTypeField.
func WithTypeField(field string) ContextOption {
	return func(c *Context) { c.typeField = field }
}

// WithScoring marks the query as needing per-document scores.
func WithScoring(enabled bool) ContextOption {
	return func(c *Context) { c.scoring = enabled }
}

// WithInterleaved marks that another facet in the batch needs per-document access.
func WithInterleaved(enabled bool) ContextOption {
	return func(c *Context) { c.interleaved = enabled }
}

// NewContext creates a Context over reader. By default it counts through an
// IndexSearcher without a cache, matches all documents and does not score.
func NewContext(reader *index.Reader, opts ...ContextOption) *Context {
	c := &Context{
		reader:    reader,
		searcher:  NewIndexSearcher(reader),
		cache:     NoCache{},
		typeField: DefaultTypeField,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reader returns the index reader.
func (c *Context) Reader() *index.Reader { return c.reader }

// Searcher returns the searcher, or nil if unavailable.
func (c *Context) Searcher() Searcher { return c.searcher }

// FilterCache returns the filter cache, or nil if unavailable.
func (c *Context) FilterCache() FilterCache { return c.cache }

// Query returns the main query; never nil.
func (c *Context) Query() filter.Filter {
	if c.query == nil {
		return filter.MatchAll()
	}
	return c.query
}

// ContextFilter returns the context-level filter, or nil.
func (c *Context) ContextFilter() filter.Filter { return c.contextFilter }

// Types returns the requested document types.
func (c *Context) Types() []string { return c.types }

// TypeFilter returns the type-derived default filter, or nil when no types are set.
func (c *Context) TypeFilter() filter.Filter {
	return TypeFilter(c.typeField, c.types...)
}

// SearchFilter combines the context filter and the type filter. Nil when neither is set.
func (c *Context) SearchFilter() filter.Filter {
	switch {
	case c.contextFilter == nil:
		return c.TypeFilter()
	case len(c.types) == 0:
		return c.contextFilter
	default:
		return filter.And(c.contextFilter, c.TypeFilter())
	}
}

// Scoring reports whether documents need scores.
func (c *Context) Scoring() bool { return c.scoring }

// Interleaved reports whether another facet needs per-document access.
func (c *Context) Interleaved() bool { return c.interleaved }

// Global reports whether the main query matches every document, so that the
// outer match stream is exactly the live documents passing SearchFilter.
func (c *Context) Global() bool {
	return filter.IsMatchAll(c.Query())
}

// OuterFilter is the filter the outer match stream is produced from.
func (c *Context) OuterFilter() filter.Filter {
	return filter.And(c.Query(), c.SearchFilter())
}

// Matches returns the rows of seg produced by the outer query: the main
// query restricted by the context and type filters, live documents only.
// The search filter goes through the cache when one is available.
func (c *Context) Matches(ctx context.Context, seg index.Segment) (*docset.Bitmap, error) {
	var sets []*docset.Bitmap

	q, err := filter.Compile(ctx, c.Query(), seg)
	if err != nil {
		return nil, err
	}
	sets = append(sets, q)

	if sf := c.SearchFilter(); sf != nil {
		var bm *docset.Bitmap
		if c.cache != nil {
			bm, err = c.cache.Compile(ctx, sf, seg)
		} else {
			bm, err = filter.Compile(ctx, sf, seg)
		}
		if err != nil {
			return nil, err
		}
		sets = append(sets, bm)
	}

	return docset.Intersect(sets...), nil
}

// TypeFilter returns a filter matching documents whose field holds one of types.
// It returns nil when types is empty.
func TypeFilter(field string, types ...string) filter.Filter {
	switch len(types) {
	case 0:
		return nil
	case 1:
		return filter.NewTerm(field, metadata.String(types[0]))
	}
	parts := make([]filter.Filter, len(types))
	for i, t := range types {
		parts[i] = filter.NewTerm(field, metadata.String(t))
	}
	return filter.Or(parts...)
}
