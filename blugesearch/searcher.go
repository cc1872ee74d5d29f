package blugesearch

import (
	"context"
	"errors"

	"github.com/blugelabs/bluge"

	"github.com/hupe1980/facetcount/index"
	"github.com/hupe1980/facetcount/search"
)

// Searcher is a search.Searcher over a bluge reader. It counts with a
// zero-hit top-N search and the standard count aggregation, so matching
// documents are never materialized.
type Searcher struct {
	reader *bluge.Reader
}

// NewSearcher wraps r. The Searcher takes ownership of r.
func NewSearcher(r *bluge.Reader) *Searcher {
	return &Searcher{reader: r}
}

// CanCount implements search.Capability.
func (s *Searcher) CanCount(p search.Predicate) bool {
	_, err := ToQuery(p.Filter())
	return err == nil
}

// Count implements search.Searcher.
//
// Bluge failures are reported as *index.AccessError so callers can fall
// back to per-segment evaluation.
func (s *Searcher) Count(ctx context.Context, p search.Predicate) (uint64, error) {
	q, err := ToQuery(p.Filter())
	if err != nil {
		return 0, err
	}

	req := bluge.NewTopNSearch(0, q).WithStandardAggregations()
	dmi, err := s.reader.Search(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return 0, err
		}
		return 0, index.NewAccessError(0, "bluge search", err)
	}
	return dmi.Aggregations().Count(), nil
}

// Close releases the reader.
func (s *Searcher) Close() error {
	return s.reader.Close()
}

var (
	_ search.Searcher   = (*Searcher)(nil)
	_ search.Capability = (*Searcher)(nil)
)
