package search

import (
	"context"

	"github.com/hupe1980/facetcount/index"
)

// Searcher executes whole-index count queries.
type Searcher interface {
	// Count returns the number of live documents matching p across the
	// whole index. It never materializes the matching ids for the caller.
	Count(ctx context.Context, p Predicate) (uint64, error)
}

// Capability is optionally implemented by searchers that can only evaluate
// some predicates. Searchers without it are assumed to handle all of them.
type Capability interface {
	CanCount(p Predicate) bool
}

// CanCount reports whether s can evaluate p.
func CanCount(s Searcher, p Predicate) bool {
	if s == nil {
		return false
	}
	if c, ok := s.(Capability); ok {
		return c.CanCount(p)
	}
	return true
}

// IndexSearcher counts by summing per-segment cardinalities over a Reader.
type IndexSearcher struct {
	reader *index.Reader
}

// NewIndexSearcher creates a searcher over reader.
func NewIndexSearcher(reader *index.Reader) *IndexSearcher {
	return &IndexSearcher{reader: reader}
}

// Reader returns the underlying reader.
func (s *IndexSearcher) Reader() *index.Reader { return s.reader }

// Count implements Searcher.
func (s *IndexSearcher) Count(ctx context.Context, p Predicate) (uint64, error) {
	var total uint64
	for _, seg := range s.reader.Segments() {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, err := count(ctx, p, seg)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}
