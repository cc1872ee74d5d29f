package facet

import (
	"context"

	"github.com/hupe1980/facetcount/model"
	"github.com/hupe1980/facetcount/search"
)

// Outcome is the result of Execute together with how it was obtained.
type Outcome struct {
	Result   model.FacetResult
	Strategy Strategy
	FellBack bool
	Segments int
}

// Execute drives one FilterFacet through its lifecycle over sc's reader.
//
// It tries the global path first. Otherwise every segment is prepared in
// reader order and fed the outer match stream of sc. An index with no
// segments counts zero.
func Execute(ctx context.Context, sc *search.Context, f Facet, opts ...Option) (Outcome, error) {
	if err := f.Validate(); err != nil {
		return Outcome{}, err
	}

	c := NewFilterFacet(f, sc, opts...)

	res, ok, err := c.MaybeOptimizeGlobally(ctx)
	if err != nil {
		return Outcome{}, err
	}
	if ok {
		return Outcome{Result: res, Strategy: StrategyGlobal}, nil
	}

	segments := sc.Reader().Segments()
	if len(segments) == 0 {
		return Outcome{
			Result:   model.NewFacetResult(f.Name, 0),
			Strategy: StrategySegmentScan,
			FellBack: c.FellBack(),
		}, nil
	}

	for _, seg := range segments {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		if err := c.PrepareSegment(ctx, seg); err != nil {
			return Outcome{}, err
		}
		matches, err := sc.Matches(ctx, seg)
		if err != nil {
			return Outcome{}, err
		}

		var collectErr error
		matches.ForEach(func(row uint32) bool {
			collectErr = c.Collect(row)
			return collectErr == nil
		})
		if collectErr != nil {
			return Outcome{}, collectErr
		}
	}

	res, err = c.FinalizeResult()
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Result:   res,
		Strategy: StrategySegmentScan,
		FellBack: c.FellBack(),
		Segments: len(segments),
	}, nil
}
