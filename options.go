package facetcount

import (
	"log/slog"

	"github.com/hupe1980/facetcount/filtercache"
	"github.com/hupe1980/facetcount/internal/resource"
	"github.com/hupe1980/facetcount/search"
)

// SearcherKind selects the searcher used for global counts.
type SearcherKind string

const (
	// SearcherIndex counts by intersecting per-segment bitmaps.
	SearcherIndex SearcherKind = "index"
	// SearcherBluge counts through an in-memory bluge mirror of the documents.
	SearcherBluge SearcherKind = "bluge"
	// SearcherNone disables global counts; every facet is segment-scanned.
	SearcherNone SearcherKind = "none"
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	searcher         SearcherKind
	cacheDisabled    bool
	cacheCapacity    int64
	resource         resource.Config
	typeField        string
}

// Option configures Engine constructor/open behavior.
type Option func(*options)

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		searcher:         SearcherIndex,
		cacheCapacity:    filtercache.DefaultCapacity,
		typeField:        search.DefaultTypeField,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

// WithSearcher selects the searcher used for global counts.
//
// Example:
//
//	eng, _ := facetcount.New(reader, facetcount.WithSearcher(facetcount.SearcherBluge))
func WithSearcher(kind SearcherKind) Option {
	return func(o *options) {
		o.searcher = kind
	}
}

// WithFilterCacheCapacity sets the filter cache size in bytes.
func WithFilterCacheCapacity(bytes int64) Option {
	return func(o *options) {
		o.cacheCapacity = bytes
	}
}

// WithoutFilterCache disables the shared filter cache. Global counts then
// become ineligible and every facet is segment-scanned.
func WithoutFilterCache() Option {
	return func(o *options) {
		o.cacheDisabled = true
	}
}

// WithMemoryLimit bounds the bytes held by cached filter bitmaps.
// Zero tracks usage without a limit.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.resource.MemoryLimitBytes = bytes
	}
}

// WithLoadConcurrency bounds how many segments Open loads in parallel.
func WithLoadConcurrency(workers int64) Option {
	return func(o *options) {
		o.resource.MaxLoadWorkers = workers
	}
}

// WithIOLimit bounds the read throughput of Open in bytes per second.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.resource.IOLimitBytesPerSec = bytesPerSec
	}
}

// WithTypeField sets the document field that Request.Types match on.
func WithTypeField(field string) Option {
	return func(o *options) {
		if field != "" {
			o.typeField = field
		}
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &facetcount.BasicMetricsCollector{}
//	eng, _ := facetcount.New(reader, facetcount.WithMetricsCollector(metrics))
//	// ... use eng ...
//	stats := metrics.GetStats()
//	fmt.Printf("Facets: %d, fallbacks: %d\n", stats.FacetCount, stats.FallbackCount)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := facetcount.NewJSONLogger(slog.LevelInfo)
//	eng, _ := facetcount.New(reader, facetcount.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}
