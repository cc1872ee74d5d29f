package index

import (
	"errors"
	"fmt"

	"github.com/hupe1980/facetcount/model"
)

var (
	// ErrIndexAccess marks failures to read segment storage.
	// Every *AccessError matches it via errors.Is.
	ErrIndexAccess = errors.New("index access failed")

	// ErrSegmentNotFound is returned when a segment id is not part of a reader.
	ErrSegmentNotFound = errors.New("segment not found")

	// ErrDuplicateSegment is returned when a reader is built with two segments sharing an id.
	ErrDuplicateSegment = errors.New("duplicate segment id")

	// ErrRowOutOfRange is returned when a row id is outside [0, MaxDoc).
	ErrRowOutOfRange = errors.New("row out of range")

	// ErrCorrupt is returned when a persisted segment fails validation.
	ErrCorrupt = errors.New("corrupt segment")
)

// AccessError reports that a segment's underlying storage could not be read.
type AccessError struct {
	SegmentID model.SegmentID
	Op        string
	Err       error
}

// NewAccessError wraps err as an AccessError for the given segment and operation.
func NewAccessError(id model.SegmentID, op string, err error) *AccessError {
	return &AccessError{SegmentID: id, Op: op, Err: err}
}

func (e *AccessError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("segment %d: %s: index access failed", e.SegmentID, e.Op)
	}
	return fmt.Sprintf("segment %d: %s: %v", e.SegmentID, e.Op, e.Err)
}

func (e *AccessError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrIndexAccess) true for every AccessError.
func (e *AccessError) Is(target error) bool {
	return target == ErrIndexAccess
}
