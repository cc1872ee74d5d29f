package index

import (
	"fmt"

	"github.com/hupe1980/facetcount/model"
)

// Reader is a point-in-time view over an ordered set of segments.
// Segment order is fixed at construction and stable for the reader's lifetime.
type Reader struct {
	segments []Segment
	byID     map[model.SegmentID]Segment
}

// NewReader creates a reader over segments in the given order.
func NewReader(segments ...Segment) (*Reader, error) {
	r := &Reader{
		segments: make([]Segment, 0, len(segments)),
		byID:     make(map[model.SegmentID]Segment, len(segments)),
	}
	for _, s := range segments {
		if _, dup := r.byID[s.ID()]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateSegment, s.ID())
		}
		r.byID[s.ID()] = s
		r.segments = append(r.segments, s)
	}
	return r, nil
}

// Segments returns the segments in enumeration order. The slice must not be modified.
func (r *Reader) Segments() []Segment {
	return r.segments
}

// Segment looks up a segment by id.
func (r *Reader) Segment(id model.SegmentID) (Segment, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrSegmentNotFound, id)
	}
	return s, nil
}

// NumSegments returns the number of segments.
func (r *Reader) NumSegments() int {
	return len(r.segments)
}

// MaxDoc returns the sum of all segments' row spaces.
func (r *Reader) MaxDoc() uint64 {
	var n uint64
	for _, s := range r.segments {
		n += uint64(s.MaxDoc())
	}
	return n
}

// NumDocs returns the number of live documents across all segments.
func (r *Reader) NumDocs() uint64 {
	var n uint64
	for _, s := range r.segments {
		n += s.LiveDocs().NumLive()
	}
	return n
}
