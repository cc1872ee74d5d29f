package facetcount

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/facetcount/blobstore"
	"github.com/hupe1980/facetcount/facet"
	"github.com/hupe1980/facetcount/filter"
	"github.com/hupe1980/facetcount/index"
	"github.com/hupe1980/facetcount/metadata"
	"github.com/hupe1980/facetcount/model"
)

func term(field, value string) filter.Filter {
	return filter.NewTerm(field, metadata.String(value))
}

// catalogSegments returns two segments. Across both, q=y and f=y hold together for rows 1 and 3 of segment 1
// and row 0 of segment 2.
func catalogSegments() []*index.MemSegment {
	d := func(f, q, typ string) metadata.Document {
		return metadata.Document{"f": metadata.String(f), "q": metadata.String(q), "_type": metadata.String(typ)}
	}
	return []*index.MemSegment{
		index.NewMemSegment(1, []metadata.Document{
			d("n", "y", "item"), d("y", "y", "item"), d("n", "y", "user"), d("y", "y", "user"), d("y", "n", "item"),
		}),
		index.NewMemSegment(2, []metadata.Document{
			d("y", "y", "item"), d("n", "n", "item"),
		}),
	}
}

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	segs := catalogSegments()
	r, err := index.NewReader(segs[0], segs[1])
	require.NoError(t, err)
	e, err := New(context.Background(), r, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestEngine_Count(t *testing.T) {
	for _, kind := range []SearcherKind{SearcherIndex, SearcherBluge, SearcherNone} {
		t.Run(string(kind), func(t *testing.T) {
			mc := &BasicMetricsCollector{}
			e := newEngine(t, WithSearcher(kind), WithMetricsCollector(mc))

			res, err := e.Count(context.Background(), Request{
				Query: term("q", "y"),
				Facets: []facet.Facet{
					{Name: "flagged", Filter: term("f", "y")},
					{Name: "items", Filter: term("f", "y"), PreFilter: term("_type", "item")},
				},
			})
			require.NoError(t, err)
			require.Len(t, res, 2)
			assert.Equal(t, "flagged", res[0].Name())
			assert.EqualValues(t, 3, res[0].Count())
			assert.Equal(t, "items", res[1].Name())
			assert.EqualValues(t, 2, res[1].Count())

			stats := mc.GetStats()
			assert.EqualValues(t, 2, stats.FacetCount)
			if kind == SearcherNone {
				assert.EqualValues(t, 2, stats.SegmentScanCount)
			} else {
				assert.EqualValues(t, 2, stats.GlobalCount)
			}
		})
	}
}

func TestEngine_StrategiesAgree(t *testing.T) {
	ctx := context.Background()
	reqs := []Request{
		{},
		{Query: term("q", "y")},
		{Query: term("q", "y"), Types: []string{"item"}},
		{Query: term("q", "y"), ContextFilter: term("_type", "user")},
		{Query: term("q", "n"), Scoring: true},
		{Interleaved: true},
	}
	facets := []facet.Facet{
		{Name: "f", Filter: term("f", "y")},
		{Name: "not_f", Filter: filter.Not(term("f", "y"))},
		{Name: "none", Filter: term("f", "missing")},
		{Name: "expr", Filter: filter.MustExpr(`doc.f == "y"`)},
	}

	scan := newEngine(t, WithSearcher(SearcherNone))
	global := newEngine(t, WithSearcher(SearcherIndex))
	mirror := newEngine(t, WithSearcher(SearcherBluge))
	uncached := newEngine(t, WithoutFilterCache())

	for _, req := range reqs {
		req.Facets = facets
		want, err := scan.Count(ctx, req)
		require.NoError(t, err)

		got, err := global.Count(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		got, err = mirror.Count(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		got, err = uncached.Count(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestEngine_Delete(t *testing.T) {
	ctx := context.Background()
	for _, kind := range []SearcherKind{SearcherIndex, SearcherBluge, SearcherNone} {
		t.Run(string(kind), func(t *testing.T) {
			mc := &BasicMetricsCollector{}
			e := newEngine(t, WithSearcher(kind), WithMetricsCollector(mc))

			count := func() uint64 {
				res, err := e.Facets().Query(term("q", "y")).Filter("f", term("f", "y")).Execute(ctx)
				require.NoError(t, err)
				return res[0].Count()
			}

			assert.EqualValues(t, 3, count())
			require.NoError(t, e.Delete(ctx, 1, 1))
			assert.EqualValues(t, 2, count())

			// Deleting again changes nothing.
			require.NoError(t, e.Delete(ctx, 1, 1))
			assert.EqualValues(t, 2, count())

			require.NoError(t, e.Delete(ctx, 2, 0, 1))
			assert.EqualValues(t, 1, count())
			assert.EqualValues(t, 4, e.Stats().Docs)

			stats := mc.GetStats()
			assert.EqualValues(t, 3, stats.DeleteCount)
			assert.EqualValues(t, 4, stats.DeletedRows)
		})
	}
}

type failingMirror struct {
	blugeMirror
}

func (failingMirror) Delete(model.SegmentID, ...uint32) error {
	return errors.New("batch failed")
}

func TestEngine_DeleteMirrorFailureFallsBackToScan(t *testing.T) {
	ctx := context.Background()
	mc := &BasicMetricsCollector{}
	e := newEngine(t, WithSearcher(SearcherBluge), WithMetricsCollector(mc))
	e.blugeIndex = failingMirror{blugeMirror: e.blugeIndex}

	err := e.Delete(ctx, 1, 1)
	require.Error(t, err)
	assert.Equal(t, SearcherNone, e.Stats().Searcher)

	res, err := e.Facets().Query(term("q", "y")).Filter("f", term("f", "y")).Execute(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, res[0].Count())
	assert.EqualValues(t, 1, mc.GetStats().SegmentScanCount)
	assert.Zero(t, mc.GetStats().GlobalCount)

	require.NoError(t, e.Delete(ctx, 2, 0))
	res, err = e.Facets().Query(term("q", "y")).Filter("f", term("f", "y")).Execute(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res[0].Count())
	require.NoError(t, e.Close())
}

func TestEngine_DeleteErrors(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	assert.ErrorIs(t, e.Delete(ctx, 9, 0), ErrNotFound)
	assert.ErrorIs(t, e.Delete(ctx, 1, 99), ErrNotFound)
	assert.ErrorIs(t, e.Delete(ctx, 1, 99), index.ErrRowOutOfRange)
}

type readOnlySegment struct{ index.Segment }

func TestEngine_DeleteReadOnly(t *testing.T) {
	r, err := index.NewReader(readOnlySegment{catalogSegments()[0]})
	require.NoError(t, err)
	e, err := New(context.Background(), r)
	require.NoError(t, err)
	defer e.Close()

	assert.ErrorIs(t, e.Delete(context.Background(), 1, 0), ErrReadOnly)
}

func TestEngine_CacheStats(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, WithSearcher(SearcherNone))

	req := Request{Query: term("q", "y"), Facets: []facet.Facet{{Name: "f", Filter: term("f", "y")}}}
	_, err := e.Count(ctx, req)
	require.NoError(t, err)
	first := e.CacheStats()
	assert.Positive(t, first.Misses)

	_, err = e.Count(ctx, req)
	require.NoError(t, err)
	second := e.CacheStats()
	assert.Greater(t, second.Hits, first.Hits)
	assert.Equal(t, first.Misses, second.Misses)

	mc := &BasicMetricsCollector{}
	disabled := newEngine(t, WithoutFilterCache(), WithMetricsCollector(mc))
	_, err = disabled.Count(ctx, req)
	require.NoError(t, err)
	assert.Zero(t, disabled.CacheStats())
	assert.EqualValues(t, 1, mc.GetStats().SegmentScanCount)
}

func TestEngine_FacetFailed(t *testing.T) {
	e := newEngine(t)

	_, err := e.Count(context.Background(), Request{Facets: []facet.Facet{
		{Name: "ok", Filter: term("f", "y")},
		{Name: "bad"},
	}})
	require.Error(t, err)

	var ff *ErrFacetFailed
	require.ErrorAs(t, err, &ff)
	assert.Equal(t, "bad", ff.Facet)
	assert.ErrorIs(t, err, ErrInvalidFacet)
}

func TestEngine_Cancelled(t *testing.T) {
	e := newEngine(t, WithSearcher(SearcherNone))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Facets().Filter("f", term("f", "y")).Execute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_Closed(t *testing.T) {
	e := newEngine(t, WithSearcher(SearcherBluge))
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	_, err := e.Facets().Filter("f", term("f", "y")).Execute(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, e.Delete(context.Background(), 1, 0), ErrClosed)
}

func TestEngine_UnknownSearcher(t *testing.T) {
	r, err := index.NewReader()
	require.NoError(t, err)
	_, err = New(context.Background(), r, WithSearcher("lucene"))
	assert.Error(t, err)

	_, err = New(context.Background(), nil)
	assert.Error(t, err)
}

func TestEngine_EmptyReader(t *testing.T) {
	r, err := index.NewReader()
	require.NoError(t, err)
	e, err := New(context.Background(), r, WithSearcher(SearcherNone))
	require.NoError(t, err)
	defer e.Close()

	res, err := e.Facets().Filter("f", term("f", "y")).Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.FacetResult{model.NewFacetResult("f", 0)}, res)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	for _, seg := range catalogSegments() {
		_, err := index.WriteSegment(ctx, store, "catalog", seg, index.WriteOptions{})
		require.NoError(t, err)
	}

	mc := &BasicMetricsCollector{}
	e, err := Open(ctx, store, "catalog", WithMetricsCollector(mc), WithLoadConcurrency(2))
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, 2, e.Stats().Segments)
	assert.EqualValues(t, 7, e.Stats().Docs)
	assert.EqualValues(t, 2, mc.GetStats().LoadedSegments)

	res, err := e.Facets().Query(term("q", "y")).Filter("f", term("f", "y")).Execute(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, res[0].Count())
}

type failingStore struct{ blobstore.BlobStore }

func (failingStore) List(context.Context, string) ([]string, error) {
	return nil, errors.New("unreachable")
}

func TestOpen_AccessError(t *testing.T) {
	mc := &BasicMetricsCollector{}
	_, err := Open(context.Background(), failingStore{blobstore.NewMemoryStore()}, "catalog", WithMetricsCollector(mc))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIndexAccess)
	assert.EqualValues(t, 1, mc.GetStats().LoadErrors)
}

func TestFacetBuilder(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	t.Run("where and types", func(t *testing.T) {
		res := e.Facets().
			Where(metadata.NewFilterSet(metadata.Filter{Key: "q", Operator: metadata.OpEqual, Value: metadata.String("y")})).
			Types("item").
			FilterWhere("f", metadata.NewFilterSet(metadata.Filter{Key: "f", Operator: metadata.OpEqual, Value: metadata.String("y")})).
			MustExecute(ctx)
		require.Len(t, res, 1)
		assert.EqualValues(t, 2, res[0].Count())
	})

	t.Run("expr", func(t *testing.T) {
		res, err := e.Facets().Expr(`doc.q == "y"`).Context(term("_type", "user")).Filter("f", term("f", "y")).Execute(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, res[0].Count())
	})

	t.Run("bad expr", func(t *testing.T) {
		fb := e.Facets().Expr(`q ==`).Filter("f", term("f", "y"))
		_, err := fb.Execute(ctx)
		assert.Error(t, err)
		_, err = fb.Request()
		assert.Error(t, err)
		assert.Panics(t, func() { fb.MustExecute(ctx) })
	})

	t.Run("stream stops early", func(t *testing.T) {
		mc := &BasicMetricsCollector{}
		e := newEngine(t, WithMetricsCollector(mc))
		var names []string
		for res, err := range e.Facets().Filter("a", term("f", "y")).Filter("b", term("f", "n")).Filter("c", term("q", "n")).Stream(ctx) {
			require.NoError(t, err)
			names = append(names, res.Name())
			if len(names) == 2 {
				break
			}
		}
		assert.Equal(t, []string{"a", "b"}, names)
		assert.EqualValues(t, 2, mc.GetStats().FacetCount)
	})

	t.Run("first", func(t *testing.T) {
		res, err := e.Facets().FilterWithPre("items", term("f", "y"), term("_type", "item")).First(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 3, res.Count())

		_, err = e.Facets().First(ctx)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("scoring and interleaved", func(t *testing.T) {
		fb := e.Facets().Scoring().Interleaved().Filter("f", term("f", "y"))
		req, err := fb.Request()
		require.NoError(t, err)
		assert.True(t, req.Scoring)
		assert.True(t, req.Interleaved)
		assert.EqualValues(t, 4, fb.MustExecute(ctx)[0].Count())
	})
}
