package facet

import (
	"context"
	"errors"

	"github.com/hupe1980/facetcount/filter"
	"github.com/hupe1980/facetcount/index"
	"github.com/hupe1980/facetcount/model"
)

// ErrInvalidFacet is returned for a facet without a name or filter.
var ErrInvalidFacet = errors.New("facet: invalid definition")

// Facet defines one filtered count.
type Facet struct {
	// Name labels the result.
	Name string
	// Filter is the predicate documents must satisfy to be counted.
	Filter filter.Filter
	// PreFilter is an optional facet-level filter applied on top of Filter.
	PreFilter filter.Filter
}

// Validate checks that the facet can be collected.
func (f Facet) Validate() error {
	if f.Name == "" {
		return errors.Join(ErrInvalidFacet, errors.New("missing name"))
	}
	if f.Filter == nil {
		return errors.Join(ErrInvalidFacet, errors.New("missing filter"))
	}
	return nil
}

// Collector is the lifecycle the surrounding framework drives for one facet
// of one query.
//
// MaybeOptimizeGlobally is called first. If it reports ok, the result is
// final and no segment is visited. Otherwise segments are prepared in reader
// order, each followed by Collect for every matching row of that segment in
// ascending order, and FinalizeResult produces the count.
type Collector interface {
	MaybeOptimizeGlobally(ctx context.Context) (res model.FacetResult, ok bool, err error)
	PrepareSegment(ctx context.Context, seg index.Segment) error
	Collect(row uint32) error
	FinalizeResult() (model.FacetResult, error)
}
