package index

import (
	"context"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/facetcount/metadata"
	"github.com/hupe1980/facetcount/model"
)

// scanCheckInterval is how many rows Scan visits between context checks.
const scanCheckInterval = 1024

// Segment is an independently readable partition of the index with its own
// local row id space [0, MaxDoc).
//
// Implementations must be safe for concurrent readers.
type Segment interface {
	// ID returns the segment's identifier, unique within a Reader.
	ID() model.SegmentID

	// MaxDoc returns one past the largest row id in the segment.
	MaxDoc() uint32

	// LiveDocs returns the current live-document snapshot.
	LiveDocs() LiveDocs

	// Terms returns the rows whose field holds exactly value, deleted rows
	// included. The returned bitmap is owned by the caller.
	Terms(ctx context.Context, field string, value metadata.Value) (*roaring.Bitmap, error)

	// Scan visits every stored document in ascending row order, deleted rows
	// included, until fn returns false.
	Scan(ctx context.Context, fn func(row uint32, doc metadata.Document) bool) error
}

// Deleter is implemented by segments that accept deletes.
type Deleter interface {
	Delete(rows ...uint32) (bool, error)
}

// MemSegment is an in-memory segment: stored documents plus an inverted
// posting list per (field, value).
type MemSegment struct {
	id         model.SegmentID
	docs       []metadata.Document
	postings   map[string]map[string]*roaring.Bitmap
	tombstones *Tombstones
}

// NewMemSegment builds a segment from docs. Row i holds docs[i].
func NewMemSegment(id model.SegmentID, docs []metadata.Document) *MemSegment {
	return newMemSegment(id, docs, NewTombstones())
}

func newMemSegment(id model.SegmentID, docs []metadata.Document, ts *Tombstones) *MemSegment {
	s := &MemSegment{
		id:         id,
		docs:       docs,
		postings:   make(map[string]map[string]*roaring.Bitmap),
		tombstones: ts,
	}

	for row, doc := range docs {
		for field, v := range doc {
			byValue, ok := s.postings[field]
			if !ok {
				byValue = make(map[string]*roaring.Bitmap)
				s.postings[field] = byValue
			}
			key := v.Key()
			rb, ok := byValue[key]
			if !ok {
				rb = roaring.New()
				byValue[key] = rb
			}
			rb.Add(uint32(row))
		}
	}

	for _, byValue := range s.postings {
		for _, rb := range byValue {
			rb.RunOptimize()
		}
	}

	return s
}

// ID implements Segment.
func (s *MemSegment) ID() model.SegmentID { return s.id }

// MaxDoc implements Segment.
func (s *MemSegment) MaxDoc() uint32 { return uint32(len(s.docs)) }

// LiveDocs implements Segment.
func (s *MemSegment) LiveDocs() LiveDocs {
	return s.tombstones.Snapshot(s.MaxDoc())
}

// Terms implements Segment.
func (s *MemSegment) Terms(ctx context.Context, field string, value metadata.Value) (*roaring.Bitmap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	byValue, ok := s.postings[field]
	if !ok {
		return roaring.New(), nil
	}
	rb, ok := byValue[value.Key()]
	if !ok {
		return roaring.New(), nil
	}
	return rb.Clone(), nil
}

// Scan implements Segment.
func (s *MemSegment) Scan(ctx context.Context, fn func(row uint32, doc metadata.Document) bool) error {
	for row, doc := range s.docs {
		if row%scanCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if !fn(uint32(row), doc) {
			return nil
		}
	}
	return nil
}

// Document returns the stored document at row.
func (s *MemSegment) Document(row uint32) (metadata.Document, bool) {
	if row >= s.MaxDoc() {
		return nil, false
	}
	return s.docs[row], true
}

// Delete marks rows as deleted. It reports whether any row changed state.
func (s *MemSegment) Delete(rows ...uint32) (bool, error) {
	for _, r := range rows {
		if r >= s.MaxDoc() {
			return false, fmt.Errorf("segment %d: row %d: %w", s.id, r, ErrRowOutOfRange)
		}
	}
	return s.tombstones.MarkDeleted(rows...), nil
}

// Fields returns the number of distinct indexed fields.
func (s *MemSegment) Fields() int { return len(s.postings) }
