package main

import (
	"context"
	"io"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/hupe1980/facetcount"
	"github.com/hupe1980/facetcount/blobstore"
	"github.com/hupe1980/facetcount/internal/config"
	logpkg "github.com/hupe1980/facetcount/internal/logger"
	"github.com/hupe1980/facetcount/model"
)

func openEngine(ctx context.Context, store blobstore.BlobStore, cfg config.Config, logger *zap.Logger, mc facetcount.MetricsCollector) (*facetcount.Engine, error) {
	opts := []facetcount.Option{
		facetcount.WithSearcher(facetcount.SearcherKind(cfg.Searcher)),
		facetcount.WithLoadConcurrency(cfg.Resource.LoadWorkers),
		facetcount.WithMemoryLimit(cfg.Resource.MemoryLimitBytes),
		facetcount.WithIOLimit(cfg.Resource.IOLimitBytesPerSec),
	}
	if cfg.Env == "prod" {
		opts = append(opts, facetcount.WithLogger(facetcount.NewJSONLogger(logpkg.SlogLevel(logger))))
	} else {
		opts = append(opts, facetcount.WithLogger(facetcount.NewTextLogger(logpkg.SlogLevel(logger))))
	}
	if cfg.Cache.Disabled {
		opts = append(opts, facetcount.WithoutFilterCache())
	} else if cfg.Cache.CapacityBytes > 0 {
		opts = append(opts, facetcount.WithFilterCacheCapacity(cfg.Cache.CapacityBytes))
	}
	if mc != nil {
		opts = append(opts, facetcount.WithMetricsCollector(mc))
	}

	eng, err := facetcount.Open(ctx, store, cfg.Storage.Prefix, opts...)
	if err != nil {
		return nil, err
	}

	stats := eng.Stats()
	logger.Info("Index loaded",
		zap.Int("segments", stats.Segments),
		zap.Uint64("docs", stats.Docs),
		zap.Int64("memory_bytes", stats.MemoryBytes),
	)
	return eng, nil
}

func count(ctx context.Context, eng *facetcount.Engine, rc config.RequestConfig) ([]model.FacetResult, error) {
	req, err := rc.Build()
	if err != nil {
		return nil, err
	}
	return eng.Count(ctx, facetcount.Request{
		Query:         req.Query,
		ContextFilter: req.Context,
		Types:         req.Types,
		Facets:        req.Facets,
	})
}

func writeCount(ctx context.Context, w io.Writer, eng *facetcount.Engine, rc config.RequestConfig) error {
	results, err := count(ctx, eng, rc)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
