package index

import (
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/facetcount/docset"
)

// tombstoneState is an immutable deleted-row set. Writers publish a new state.
type tombstoneState struct {
	deleted    *roaring.Bitmap
	generation uint64
}

// Tombstones tracks deleted rows of one segment.
//
// Reads are lock-free via atomic.Pointer. Writes copy the current bitmap,
// apply the change and publish a new state with a bumped generation, so a
// LiveDocs snapshot taken before a delete never observes it.
type Tombstones struct {
	state atomic.Pointer[tombstoneState]
	mu    sync.Mutex
}

// NewTombstones creates an empty tombstone set at generation 0.
func NewTombstones() *Tombstones {
	t := &Tombstones{}
	t.state.Store(&tombstoneState{deleted: roaring.New()})
	return t
}

// NewTombstonesFrom creates a tombstone set holding rows.
func NewTombstonesFrom(rows []uint32) *Tombstones {
	t := &Tombstones{}
	rb := roaring.BitmapOf(rows...)
	rb.RunOptimize()
	t.state.Store(&tombstoneState{deleted: rb})
	return t
}

// MarkDeleted marks rows as deleted. It returns false when every row was
// already deleted, in which case the generation is unchanged.
func (t *Tombstones) MarkDeleted(rows ...uint32) bool {
	// Fast path: nothing new to delete.
	curr := t.state.Load()
	fresh := false
	for _, r := range rows {
		if !curr.deleted.Contains(r) {
			fresh = true
			break
		}
	}
	if !fresh {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	curr = t.state.Load()
	next := curr.deleted.Clone()
	before := next.GetCardinality()
	next.AddMany(rows)
	if next.GetCardinality() == before {
		return false
	}
	next.RunOptimize()

	t.state.Store(&tombstoneState{
		deleted:    next,
		generation: curr.generation + 1,
	})
	return true
}

// IsDeleted reports whether row is deleted. Wait-free.
func (t *Tombstones) IsDeleted(row uint32) bool {
	return t.state.Load().deleted.Contains(row)
}

// Count returns the number of deleted rows.
func (t *Tombstones) Count() uint64 {
	return t.state.Load().deleted.GetCardinality()
}

// Generation returns the current generation. It increases on every effective delete.
func (t *Tombstones) Generation() uint64 {
	return t.state.Load().generation
}

// Rows returns the deleted rows in ascending order.
func (t *Tombstones) Rows() []uint32 {
	return t.state.Load().deleted.ToArray()
}

// Snapshot returns the live-document view of a segment with maxDoc rows.
func (t *Tombstones) Snapshot(maxDoc uint32) LiveDocs {
	s := t.state.Load()
	return LiveDocs{maxDoc: maxDoc, deleted: s.deleted, generation: s.generation}
}

// LiveDocs is an immutable snapshot of the live rows of one segment.
// A row is live if it is below MaxDoc and not deleted.
type LiveDocs struct {
	maxDoc     uint32
	deleted    *roaring.Bitmap
	generation uint64
}

// AllLive returns a snapshot where every row in [0, maxDoc) is live.
func AllLive(maxDoc uint32) LiveDocs {
	return LiveDocs{maxDoc: maxDoc}
}

// MaxDoc returns the size of the segment's row space.
func (l LiveDocs) MaxDoc() uint32 { return l.maxDoc }

// Generation identifies the tombstone state this snapshot was taken from.
func (l LiveDocs) Generation() uint64 { return l.generation }

// IsLive reports whether row is a live document.
func (l LiveDocs) IsLive(row uint32) bool {
	if row >= l.maxDoc {
		return false
	}
	return l.deleted == nil || !l.deleted.Contains(row)
}

// NumDeleted returns the number of deleted rows inside [0, MaxDoc).
func (l LiveDocs) NumDeleted() uint64 {
	if l.deleted == nil || l.maxDoc == 0 {
		return 0
	}
	return l.deleted.Rank(l.maxDoc - 1)
}

// NumLive returns the number of live rows.
func (l LiveDocs) NumLive() uint64 {
	return uint64(l.maxDoc) - l.NumDeleted()
}

// Restrict removes non-live rows from rb in place.
func (l LiveDocs) Restrict(rb *roaring.Bitmap) {
	rb.RemoveRange(uint64(l.maxDoc), uint64(1)<<32)
	if l.deleted != nil && !l.deleted.IsEmpty() {
		rb.AndNot(l.deleted)
	}
}

// Bitmap returns every live row as an immutable bitmap.
func (l LiveDocs) Bitmap() *docset.Bitmap {
	rb := roaring.New()
	rb.AddRange(0, uint64(l.maxDoc))
	if l.deleted != nil && !l.deleted.IsEmpty() {
		rb.AndNot(l.deleted)
	}
	return docset.FromRoaring(rb)
}
