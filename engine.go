package facetcount

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/facetcount/blobstore"
	"github.com/hupe1980/facetcount/blugesearch"
	"github.com/hupe1980/facetcount/facet"
	"github.com/hupe1980/facetcount/filter"
	"github.com/hupe1980/facetcount/filtercache"
	"github.com/hupe1980/facetcount/index"
	"github.com/hupe1980/facetcount/internal/resource"
	"github.com/hupe1980/facetcount/model"
	"github.com/hupe1980/facetcount/search"
)

// Request describes one query execution and the facets to count for it.
type Request struct {
	// Query is the main query. Nil matches every document.
	Query filter.Filter
	// ContextFilter is applied to every facet, for example an alias filter.
	ContextFilter filter.Filter
	// Types restricts the query to documents of these types.
	Types []string
	// Scoring marks the query as ranking documents, which rules out global counts.
	Scoring bool
	// Interleaved marks that another consumer needs per-document access.
	Interleaved bool
	// Facets are counted independently, in order.
	Facets []facet.Facet
}

// Engine counts facets over a point-in-time set of segments.
// It is safe for concurrent use.
type Engine struct {
	reader    *index.Reader
	cache     *filtercache.Cache
	rc        *resource.Controller
	logger    *Logger
	metrics   MetricsCollector
	typeField string
	kind      SearcherKind

	mu            sync.RWMutex
	closed        bool
	searcher      search.Searcher
	blugeIndex    blugeMirror
	blugeSearcher *blugesearch.Searcher
}

// blugeMirror is the bluge copy of the segments kept in step by Delete.
type blugeMirror interface {
	Delete(id model.SegmentID, rows ...uint32) error
	Searcher() (*blugesearch.Searcher, error)
	Close() error
}

// New creates an Engine over reader.
func New(ctx context.Context, reader *index.Reader, optFns ...Option) (*Engine, error) {
	o := applyOptions(optFns)
	return newEngine(ctx, reader, resource.NewController(o.resource), o)
}

// Open loads every segment below prefix from store and creates an Engine over them.
//
// Example:
//
//	store, _ := blobstore.NewLocalStore("./data")
//	eng, _ := facetcount.Open(ctx, store, "catalog", facetcount.WithLoadConcurrency(4))
func Open(ctx context.Context, store blobstore.BlobStore, prefix string, optFns ...Option) (*Engine, error) {
	o := applyOptions(optFns)
	rc := resource.NewController(o.resource)

	start := time.Now()
	reader, err := index.OpenReader(ctx, store, prefix, index.OpenOptions{Resource: rc})
	if err != nil {
		o.metricsCollector.RecordLoad(0, time.Since(start), err)
		o.logger.LogLoad(ctx, prefix, 0, 0, err)
		return nil, translateError(err)
	}
	o.metricsCollector.RecordLoad(reader.NumSegments(), time.Since(start), nil)
	o.logger.LogLoad(ctx, prefix, reader.NumSegments(), reader.NumDocs(), nil)

	return newEngine(ctx, reader, rc, o)
}

func newEngine(ctx context.Context, reader *index.Reader, rc *resource.Controller, o options) (*Engine, error) {
	if reader == nil {
		return nil, errors.New("facetcount: nil reader")
	}

	e := &Engine{
		reader:    reader,
		rc:        rc,
		logger:    o.logger,
		metrics:   o.metricsCollector,
		typeField: o.typeField,
		kind:      o.searcher,
	}

	if !o.cacheDisabled {
		e.cache = filtercache.New(filtercache.Options{Capacity: o.cacheCapacity, Resource: rc})
	}

	switch o.searcher {
	case SearcherIndex, "":
		e.searcher = search.NewIndexSearcher(reader)
	case SearcherBluge:
		idx, err := blugesearch.NewInMemoryIndex()
		if err != nil {
			return nil, err
		}
		if err := idx.AddReader(ctx, reader); err != nil {
			_ = idx.Close()
			return nil, err
		}
		e.blugeIndex = idx
		if err := e.refreshBluge(); err != nil {
			_ = idx.Close()
			return nil, err
		}
	case SearcherNone:
	default:
		return nil, fmt.Errorf("facetcount: unknown searcher %q", o.searcher)
	}

	return e, nil
}

// refreshBluge swaps in a searcher over the current bluge snapshot. Callers hold mu or own e exclusively.
func (e *Engine) refreshBluge() error {
	s, err := e.blugeIndex.Searcher()
	if err != nil {
		return err
	}
	if e.blugeSearcher != nil {
		_ = e.blugeSearcher.Close()
	}
	e.blugeSearcher = s
	e.searcher = s
	return nil
}

// Reader returns the underlying index reader.
func (e *Engine) Reader() *index.Reader { return e.reader }

// Count computes every facet of req. Facets are independent: each chooses
// its own strategy. The first failing facet aborts the request with an
// *ErrFacetFailed.
func (e *Engine) Count(ctx context.Context, req Request) ([]model.FacetResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil, ErrClosed
	}

	sc := e.searchContext(req)
	results := make([]model.FacetResult, 0, len(req.Facets))
	for _, f := range req.Facets {
		out, err := e.countFacet(ctx, sc, f)
		if err != nil {
			return nil, &ErrFacetFailed{Facet: f.Name, cause: translateError(err)}
		}
		results = append(results, out.Result)
	}
	return results, nil
}

func (e *Engine) countFacet(ctx context.Context, sc *search.Context, f facet.Facet) (facet.Outcome, error) {
	start := time.Now()
	out, err := facet.Execute(ctx, sc, f, facet.WithLogger(e.logger.Logger))
	elapsed := time.Since(start)

	strategy := out.Strategy.String()
	if err != nil {
		strategy = "invalid"
		if f.Validate() == nil {
			strategy = facet.SelectStrategy(sc, f).String()
		}
	}
	if out.FellBack {
		e.metrics.RecordFallback()
		e.logger.LogFallback(ctx, f.Name)
	}
	e.metrics.RecordFacet(strategy, elapsed, err)
	e.logger.LogFacet(ctx, f.Name, strategy, out.Result.Count(), elapsed, err)
	return out, err
}

func (e *Engine) searchContext(req Request) *search.Context {
	opts := []search.ContextOption{
		search.WithSearcher(e.searcher),
		search.WithQuery(req.Query),
		search.WithContextFilter(req.ContextFilter),
		search.WithTypeField(e.typeField),
		search.WithTypes(req.Types...),
		search.WithScoring(req.Scoring),
		search.WithInterleaved(req.Interleaved),
	}
	// A disabled cache leaves the context without one, which rules out global counts.
	if e.cache != nil {
		opts = append(opts, search.WithFilterCache(e.cache))
	} else {
		opts = append(opts, search.WithFilterCache(nil))
	}
	return search.NewContext(e.reader, opts...)
}

// Delete marks rows of segment id as deleted. Later counts never include them.
// If the bluge mirror fails to follow, the rows stay deleted, the mirror is
// dropped and the error is returned.
func (e *Engine) Delete(ctx context.Context, id model.SegmentID, rows ...uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}

	start := time.Now()
	err := e.delete(id, rows)
	e.metrics.RecordDelete(len(rows), time.Since(start), err)
	e.logger.LogDelete(ctx, uint64(id), len(rows), err)
	return translateError(err)
}

func (e *Engine) delete(id model.SegmentID, rows []uint32) error {
	seg, err := e.reader.Segment(id)
	if err != nil {
		return err
	}
	d, ok := seg.(index.Deleter)
	if !ok {
		return fmt.Errorf("%w: segment %d", ErrReadOnly, id)
	}
	changed, err := d.Delete(rows...)
	if err != nil || !changed {
		return err
	}

	// Entries of older generations can no longer be hit.
	if e.cache != nil {
		e.cache.Invalidate(id)
	}
	if e.blugeIndex != nil {
		err := e.blugeIndex.Delete(id, rows...)
		if err == nil {
			err = e.refreshBluge()
		}
		if err != nil {
			e.dropBluge()
			return fmt.Errorf("facetcount: rows deleted, bluge mirror dropped: %w", err)
		}
	}
	return nil
}

// dropBluge discards a mirror that no longer matches the segments. Facets
// then count by segment scan. Callers hold mu.
func (e *Engine) dropBluge() {
	if e.blugeSearcher != nil {
		_ = e.blugeSearcher.Close()
		e.blugeSearcher = nil
	}
	_ = e.blugeIndex.Close()
	e.blugeIndex = nil
	e.searcher = nil
	e.kind = SearcherNone
}

// Stats describes the engine's index and cache.
type Stats struct {
	Segments    int               `json:"segments"`
	Docs        uint64            `json:"docs"`
	MaxDoc      uint64            `json:"max_doc"`
	Searcher    SearcherKind      `json:"searcher"`
	Cache       filtercache.Stats `json:"cache"`
	MemoryBytes int64             `json:"memory_bytes"`
}

// Stats returns a snapshot of index and cache usage.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	kind := e.kind
	e.mu.RUnlock()

	return Stats{
		Segments:    e.reader.NumSegments(),
		Docs:        e.reader.NumDocs(),
		MaxDoc:      e.reader.MaxDoc(),
		Searcher:    kind,
		Cache:       e.CacheStats(),
		MemoryBytes: e.rc.MemoryUsage(),
	}
}

// CacheStats returns filter cache usage. It is zero when the cache is disabled.
func (e *Engine) CacheStats() filtercache.Stats {
	if e.cache == nil {
		return filtercache.Stats{}
	}
	return e.cache.Stats()
}
