package facetcount

import (
	"errors"
	"fmt"

	"github.com/hupe1980/facetcount/facet"
	"github.com/hupe1980/facetcount/index"
)

var (
	// ErrIndexAccess is returned when segment storage cannot be read.
	ErrIndexAccess = index.ErrIndexAccess

	// ErrPrecondition is returned when a collector is driven out of order.
	ErrPrecondition = facet.ErrPrecondition

	// ErrInvalidFacet is returned for a facet without a name or filter.
	ErrInvalidFacet = facet.ErrInvalidFacet

	// ErrNotFound is returned when a segment or row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrReadOnly is returned when deleting from a segment that does not accept deletes.
	ErrReadOnly = errors.New("segment is read-only")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("engine is closed")
)

// ErrFacetFailed reports that one facet could not be computed. A failed
// facet yields no result, so it is never confused with a zero count.
//
// The underlying error can be accessed via errors.Unwrap.
type ErrFacetFailed struct {
	Facet string
	cause error
}

func (e *ErrFacetFailed) Error() string {
	return fmt.Sprintf("facet %q failed: %v", e.Facet, e.cause)
}

func (e *ErrFacetFailed) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	if errors.Is(err, index.ErrSegmentNotFound) || errors.Is(err, index.ErrRowOutOfRange) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	return err
}
