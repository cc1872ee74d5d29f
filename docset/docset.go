package docset

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// DocSet is an abstract, segment-local set of row ids.
// It is intentionally minimal: implementations may wrap roaring bitmaps,
// dense bitsets, or posting lists.
type DocSet interface {
	// Contains reports whether row is present in the set.
	Contains(row uint32) bool

	// Cardinality returns the number of elements in the set.
	Cardinality() uint64

	// ForEach calls fn for each row in ascending order.
	// Stop early if fn returns false.
	ForEach(fn func(row uint32) bool)
}

// Bitmap is an immutable roaring-backed DocSet.
//
// Once constructed it is never mutated, so a Bitmap may be published through
// a cache and read concurrently without locking.
type Bitmap struct {
	rb *roaring.Bitmap
}

var empty = &Bitmap{rb: roaring.New()}

// Empty returns the shared empty Bitmap.
func Empty() *Bitmap { return empty }

// FromRoaring wraps rb. The caller transfers ownership and must not mutate rb afterwards.
func FromRoaring(rb *roaring.Bitmap) *Bitmap {
	if rb == nil {
		return empty
	}
	rb.RunOptimize()
	return &Bitmap{rb: rb}
}

// Of builds a Bitmap from explicit rows.
func Of(rows ...uint32) *Bitmap {
	return FromRoaring(roaring.BitmapOf(rows...))
}

// Contains checks if a row is in the bitmap.
func (b *Bitmap) Contains(row uint32) bool {
	return b.rb.Contains(row)
}

// Cardinality returns the number of elements in the bitmap.
func (b *Bitmap) Cardinality() uint64 {
	return b.rb.GetCardinality()
}

// ForEach iterates over the bitmap in ascending order.
func (b *Bitmap) ForEach(fn func(row uint32) bool) {
	b.rb.Iterate(fn)
}

// IsEmpty returns true if the bitmap is empty.
func (b *Bitmap) IsEmpty() bool {
	return b.rb.IsEmpty()
}

// SizeInBytes returns the in-memory size of the bitmap.
func (b *Bitmap) SizeInBytes() uint64 {
	return b.rb.GetSizeInBytes()
}

// AndCardinality returns |b ∩ other| without materializing the intersection.
func (b *Bitmap) AndCardinality(other *Bitmap) uint64 {
	return b.rb.AndCardinality(other.rb)
}

// ToRoaring returns a mutable copy of the underlying roaring bitmap.
func (b *Bitmap) ToRoaring() *roaring.Bitmap {
	return b.rb.Clone()
}

// ToArray returns the rows in ascending order.
func (b *Bitmap) ToArray() []uint32 {
	return b.rb.ToArray()
}

// Equals reports whether both bitmaps hold the same rows.
func (b *Bitmap) Equals(other *Bitmap) bool {
	return b.rb.Equals(other.rb)
}

// Intersect returns a new Bitmap holding the rows present in every input.
// With no inputs it returns the empty Bitmap.
func Intersect(sets ...*Bitmap) *Bitmap {
	switch len(sets) {
	case 0:
		return empty
	case 1:
		return sets[0]
	}
	rbs := make([]*roaring.Bitmap, len(sets))
	for i, s := range sets {
		rbs[i] = s.rb
	}
	return FromRoaring(roaring.FastAnd(rbs...))
}

// IntersectionCount returns the size of the intersection of sets.
// For one or two inputs no intersection is materialized.
func IntersectionCount(sets ...*Bitmap) uint64 {
	switch len(sets) {
	case 0:
		return 0
	case 1:
		return sets[0].Cardinality()
	case 2:
		return sets[0].AndCardinality(sets[1])
	}
	head := Intersect(sets[:len(sets)-1]...)
	return head.AndCardinality(sets[len(sets)-1])
}
