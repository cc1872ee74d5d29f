package facet

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hupe1980/facetcount/index"
	"github.com/hupe1980/facetcount/model"
	"github.com/hupe1980/facetcount/search"
)

// Option configures a FilterFacet.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used to report fallbacks.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// FilterFacet is the Collector for a filtered count. It selects a Strategy
// once, in MaybeOptimizeGlobally, and then behaves as that strategy.
type FilterFacet struct {
	facet  Facet
	sc     *search.Context
	logger *slog.Logger

	strategy  Strategy
	decided   bool
	fellBack  bool
	optimized *model.FacetResult
	scan      *SegmentScanCollector
}

var _ Collector = (*FilterFacet)(nil)

// NewFilterFacet creates the collector for f bound to sc.
func NewFilterFacet(f Facet, sc *search.Context, opts ...Option) *FilterFacet {
	o := applyOptions(opts)
	return &FilterFacet{
		facet:  f,
		sc:     sc,
		logger: o.logger,
	}
}

// MaybeOptimizeGlobally runs the global path when eligible. It reports ok
// with the final result on success. An index access failure on the global
// path is not returned: the facet switches to segment scanning and reports
// ok=false. Other errors, such as cancellation, are returned.
func (f *FilterFacet) MaybeOptimizeGlobally(ctx context.Context) (model.FacetResult, bool, error) {
	if f.decided {
		return model.FacetResult{}, false, precondition("MaybeOptimizeGlobally", f.state())
	}
	f.decided = true
	p, eligible := globalPredicate(f.sc, f.facet)
	if !eligible {
		f.strategy = StrategySegmentScan
		return model.FacetResult{}, false, nil
	}
	f.strategy = StrategyGlobal

	n, err := NewGlobalOptimizedCollector(f.facet).Count(ctx, f.sc, p)
	if err != nil {
		if errors.Is(err, index.ErrIndexAccess) && ctx.Err() == nil {
			f.logger.Warn("global facet count failed, falling back to segment scan",
				"facet", f.facet.Name, "error", err)
			f.strategy = StrategySegmentScan
			f.fellBack = true
			return model.FacetResult{}, false, nil
		}
		return model.FacetResult{}, false, err
	}

	res := model.NewFacetResult(f.facet.Name, n)
	f.optimized = &res
	return res, true, nil
}

// PrepareSegment implements Collector.
func (f *FilterFacet) PrepareSegment(ctx context.Context, seg index.Segment) error {
	if f.optimized != nil {
		return precondition("PrepareSegment", StateFinalized)
	}
	f.decided = true
	if f.scan == nil {
		f.scan = NewSegmentScanCollector(f.facet, f.sc.FilterCache())
	}
	return f.scan.PrepareSegment(ctx, seg)
}

// Collect implements Collector.
func (f *FilterFacet) Collect(row uint32) error {
	if f.scan == nil {
		return precondition("Collect", f.state())
	}
	return f.scan.Collect(row)
}

// FinalizeResult implements Collector.
func (f *FilterFacet) FinalizeResult() (model.FacetResult, error) {
	if f.optimized != nil {
		return *f.optimized, nil
	}
	if f.scan == nil {
		return model.FacetResult{}, precondition("FinalizeResult", StateUninitialized)
	}
	return f.scan.FinalizeResult()
}

// Strategy returns the strategy in effect.
func (f *FilterFacet) Strategy() Strategy { return f.strategy }

// FellBack reports whether the global path failed and segment scanning took over.
func (f *FilterFacet) FellBack() bool { return f.fellBack }

func (f *FilterFacet) state() State {
	switch {
	case f.optimized != nil:
		return StateFinalized
	case f.scan != nil:
		return f.scan.State()
	default:
		return StateUninitialized
	}
}
