package facetcount

import (
	"context"
	"errors"
	"iter"

	"github.com/hupe1980/facetcount/facet"
	"github.com/hupe1980/facetcount/filter"
	"github.com/hupe1980/facetcount/metadata"
	"github.com/hupe1980/facetcount/model"
)

// Facets creates a fluent builder for a facet count request.
//
// Example:
//
//	results, err := eng.Facets().
//	    Where(metadata.NewFilterSet(metadata.Filter{Key: "category", Operator: metadata.OpEqual, Value: metadata.String("a")})).
//	    Filter("in_stock", filter.NewTerm("in_stock", metadata.Bool(true))).
//	    Execute(ctx)
//
//	// Or with streaming:
//	for res, err := range eng.Facets().Filter("x", fx).Filter("y", fy).Stream(ctx) {
//	    if err != nil { break }
//	    fmt.Println(res)
//	}
func (e *Engine) Facets() *FacetBuilder {
	return &FacetBuilder{e: e}
}

// FacetBuilder is a fluent builder for facet count requests.
type FacetBuilder struct {
	e   *Engine
	req Request
	err error
}

// Query sets the main query.
func (fb *FacetBuilder) Query(q filter.Filter) *FacetBuilder {
	fb.req.Query = q
	return fb
}

// Where sets the main query from a metadata filter set.
func (fb *FacetBuilder) Where(fs *metadata.FilterSet) *FacetBuilder {
	return fb.Query(filter.FromFilterSet(fs))
}

// Expr sets the main query from a CEL expression over document fields.
func (fb *FacetBuilder) Expr(source string) *FacetBuilder {
	x, err := filter.NewExpr(source)
	if err != nil {
		fb.err = errors.Join(fb.err, err)
		return fb
	}
	return fb.Query(x)
}

// Context sets a filter applied to every facet, for example an alias filter.
func (fb *FacetBuilder) Context(f filter.Filter) *FacetBuilder {
	fb.req.ContextFilter = f
	return fb
}

// Types restricts the request to documents of the given types.
func (fb *FacetBuilder) Types(types ...string) *FacetBuilder {
	fb.req.Types = types
	return fb
}

// Scoring marks the request as ranking documents.
func (fb *FacetBuilder) Scoring() *FacetBuilder {
	fb.req.Scoring = true
	return fb
}

// Interleaved marks that another collector consumes the same documents.
func (fb *FacetBuilder) Interleaved() *FacetBuilder {
	fb.req.Interleaved = true
	return fb
}

// Filter adds a facet counting documents that match f.
func (fb *FacetBuilder) Filter(name string, f filter.Filter) *FacetBuilder {
	fb.req.Facets = append(fb.req.Facets, facet.Facet{Name: name, Filter: f})
	return fb
}

// FilterWithPre adds a facet with a pre-filter that is applied before f.
func (fb *FacetBuilder) FilterWithPre(name string, f, pre filter.Filter) *FacetBuilder {
	fb.req.Facets = append(fb.req.Facets, facet.Facet{Name: name, Filter: f, PreFilter: pre})
	return fb
}

// FilterWhere adds a facet from a metadata filter set.
func (fb *FacetBuilder) FilterWhere(name string, fs *metadata.FilterSet) *FacetBuilder {
	return fb.Filter(name, filter.FromFilterSet(fs))
}

// Request returns the request built so far.
func (fb *FacetBuilder) Request() (Request, error) {
	return fb.req, fb.err
}

// Execute counts every facet and returns the results in the order they were added.
func (fb *FacetBuilder) Execute(ctx context.Context) ([]model.FacetResult, error) {
	if fb.err != nil {
		return nil, fb.err
	}
	return fb.e.Count(ctx, fb.req)
}

// MustExecute runs Execute, panicking on error.
// Use this only in tests or when you're certain the request is valid.
func (fb *FacetBuilder) MustExecute(ctx context.Context) []model.FacetResult {
	results, err := fb.Execute(ctx)
	if err != nil {
		panic(err)
	}
	return results
}

// Stream yields facet results one at a time. Each facet is counted only when
// the consumer asks for it, so breaking early skips the remaining facets.
func (fb *FacetBuilder) Stream(ctx context.Context) iter.Seq2[model.FacetResult, error] {
	return func(yield func(model.FacetResult, error) bool) {
		if fb.err != nil {
			yield(model.FacetResult{}, fb.err)
			return
		}
		for _, f := range fb.req.Facets {
			req := fb.req
			req.Facets = []facet.Facet{f}
			results, err := fb.e.Count(ctx, req)
			if err != nil {
				yield(model.FacetResult{}, err)
				return
			}
			if !yield(results[0], nil) {
				return
			}
		}
	}
}

// First counts only the first facet added.
func (fb *FacetBuilder) First(ctx context.Context) (model.FacetResult, error) {
	for res, err := range fb.Stream(ctx) {
		return res, err
	}
	return model.FacetResult{}, ErrNotFound
}
