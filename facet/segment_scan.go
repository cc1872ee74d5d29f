package facet

import (
	"context"

	"github.com/hupe1980/facetcount/docset"
	"github.com/hupe1980/facetcount/filter"
	"github.com/hupe1980/facetcount/index"
	"github.com/hupe1980/facetcount/model"
	"github.com/hupe1980/facetcount/search"
)

// SegmentScanCollector counts collected rows that are members of the
// facet's per-segment DocSet.
//
// It is single-threaded: one segment is prepared at a time and the dense
// membership buffer is reused across segments.
type SegmentScanCollector struct {
	facet Facet
	cache search.FilterCache

	dense    *docset.Dense
	segment  model.SegmentID
	segments int
	state    State
	count    uint64
	err      error
}

// NewSegmentScanCollector creates a collector for f. Filters are compiled
// through cache; a nil cache compiles on every segment.
func NewSegmentScanCollector(f Facet, cache search.FilterCache) *SegmentScanCollector {
	if cache == nil {
		cache = search.NoCache{}
	}
	return &SegmentScanCollector{facet: f, cache: cache}
}

// PrepareSegment compiles the facet filters against seg's live documents.
// Storage failures are returned as *index.AccessError. A failed prepare is
// fatal: every later call returns the same error.
func (c *SegmentScanCollector) PrepareSegment(ctx context.Context, seg index.Segment) error {
	if c.err != nil {
		return c.err
	}
	if c.state == StateFinalized {
		return precondition("PrepareSegment", c.state)
	}

	bm, err := c.compile(ctx, seg)
	if err != nil {
		c.fail(err)
		return err
	}

	if c.dense == nil {
		c.dense = docset.GetDense(seg.MaxDoc())
	} else {
		c.dense.Reset(seg.MaxDoc())
	}
	c.dense.Load(bm)

	c.segment = seg.ID()
	c.segments++
	c.state = StateSegmentPrepared
	return nil
}

func (c *SegmentScanCollector) compile(ctx context.Context, seg index.Segment) (*docset.Bitmap, error) {
	bm, err := c.cache.Compile(ctx, c.facet.Filter, seg)
	if err != nil {
		return nil, err
	}
	if c.facet.PreFilter == nil || filter.IsMatchAll(c.facet.PreFilter) {
		return bm, nil
	}
	pre, err := c.cache.Compile(ctx, c.facet.PreFilter, seg)
	if err != nil {
		return nil, err
	}
	return docset.Intersect(bm, pre), nil
}

func (c *SegmentScanCollector) fail(err error) {
	c.err = err
	docset.PutDense(c.dense)
	c.dense = nil
}

// Collect counts row if it is a member of the prepared segment's DocSet.
func (c *SegmentScanCollector) Collect(row uint32) error {
	if c.err != nil {
		return c.err
	}
	if c.state != StateSegmentPrepared && c.state != StateCollecting {
		return precondition("Collect", c.state)
	}
	c.state = StateCollecting
	if c.dense.Contains(row) {
		c.count++
	}
	return nil
}

// FinalizeResult returns the accumulated count and releases the buffer.
func (c *SegmentScanCollector) FinalizeResult() (model.FacetResult, error) {
	if c.err != nil {
		return model.FacetResult{}, c.err
	}
	if c.state == StateUninitialized || c.state == StateFinalized {
		return model.FacetResult{}, precondition("FinalizeResult", c.state)
	}
	c.state = StateFinalized
	docset.PutDense(c.dense)
	c.dense = nil
	return model.NewFacetResult(c.facet.Name, c.count), nil
}

// Count returns the running count.
func (c *SegmentScanCollector) Count() uint64 { return c.count }

// State returns the lifecycle state.
func (c *SegmentScanCollector) State() State { return c.state }

// Segment returns the currently prepared segment.
func (c *SegmentScanCollector) Segment() model.SegmentID { return c.segment }

// Segments returns how many segments have been prepared.
func (c *SegmentScanCollector) Segments() int { return c.segments }
