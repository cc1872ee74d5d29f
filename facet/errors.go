package facet

import (
	"errors"
	"fmt"

	"github.com/hupe1980/facetcount/index"
)

var (
	// ErrPrecondition marks a collector used out of lifecycle order.
	// It is a caller defect, never a data error.
	ErrPrecondition = errors.New("facet: precondition violated")

	// ErrSearcherUnavailable is returned by the optimized path when the
	// context carries no searcher. It matches index.ErrIndexAccess.
	ErrSearcherUnavailable = fmt.Errorf("%w: searcher unavailable", index.ErrIndexAccess)

	// ErrCacheUnavailable is returned by the optimized path when the context
	// carries no filter cache. It matches index.ErrIndexAccess.
	ErrCacheUnavailable = fmt.Errorf("%w: filter cache unavailable", index.ErrIndexAccess)
)

// PreconditionError reports which operation was called in which state.
type PreconditionError struct {
	Op    string
	State State
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("facet: %s called in state %s", e.Op, e.State)
}

// Is makes errors.Is(err, ErrPrecondition) true for every PreconditionError.
func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

func precondition(op string, s State) error {
	return &PreconditionError{Op: op, State: s}
}
