package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/facetcount"
	"github.com/hupe1980/facetcount/index"
	"github.com/hupe1980/facetcount/metadata"
)

var _ facetcount.MetricsCollector = (*Collector)(nil)

func TestCollector_Record(t *testing.T) {
	c := New()

	c.RecordFacet("global", time.Millisecond, nil)
	c.RecordFacet("global", time.Millisecond, nil)
	c.RecordFacet("segment_scan", time.Millisecond, errors.New("boom"))
	c.RecordFallback()
	c.RecordLoad(3, time.Second, nil)
	c.RecordLoad(0, time.Second, errors.New("boom"))
	c.RecordDelete(2, time.Millisecond, nil)

	assert.InDelta(t, 2, testutil.ToFloat64(c.FacetsTotal.WithLabelValues("global", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.FacetsTotal.WithLabelValues("segment_scan", "error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.FallbacksTotal), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.LoadsTotal.WithLabelValues("error")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(c.LoadedSegments), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(c.DeletedRows), 0)
}

func TestCollector_Register(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New()
	require.NoError(t, c.Register(reg))
	assert.Error(t, c.Register(reg))

	c.RecordFallback()
	n, err := testutil.GatherAndCount(reg, "facetcount_fallbacks_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCollector_Engine(t *testing.T) {
	ctx := context.Background()
	r, err := index.NewReader(index.NewMemSegment(1, []metadata.Document{
		{"f": metadata.String("y")},
		{"f": metadata.String("n")},
	}))
	require.NoError(t, err)

	c := New()
	e, err := facetcount.New(ctx, r, facetcount.WithMetricsCollector(c))
	require.NoError(t, err)
	defer e.Close()

	res := e.Facets().FilterWhere("f", metadata.NewFilterSet(metadata.Filter{Key: "f", Operator: metadata.OpEqual, Value: metadata.String("y")})).MustExecute(ctx)
	assert.EqualValues(t, 1, res[0].Count())

	assert.InDelta(t, 1, testutil.ToFloat64(c.FacetsTotal.WithLabelValues("global", "ok")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(c.FacetsTotal.WithLabelValues("segment_scan", "ok")), 0)
}
