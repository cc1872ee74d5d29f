package docset

import (
	"sync"

	"github.com/bits-and-blooms/bitset"
)

// Dense is a reusable dense DocSet with O(1) membership tests.
//
// A collector keeps one Dense for its whole lifetime and reloads it for every
// segment, so the backing words are allocated once and only grow.
// Dense is not safe for concurrent mutation.
type Dense struct {
	bs   *bitset.BitSet
	size uint32
}

// densePool reuses Dense buffers across collectors.
var densePool = sync.Pool{
	New: func() any {
		return &Dense{bs: bitset.New(0)}
	},
}

// NewDense creates an empty Dense able to hold rows [0, size).
func NewDense(size uint32) *Dense {
	return &Dense{bs: bitset.New(uint(size)), size: size}
}

// GetDense gets a Dense from the pool, reset to size. Call PutDense when done.
func GetDense(size uint32) *Dense {
	d := densePool.Get().(*Dense)
	d.Reset(size)
	return d
}

// PutDense returns a Dense to the pool.
func PutDense(d *Dense) {
	if d == nil {
		return
	}
	d.bs.ClearAll()
	d.size = 0
	densePool.Put(d)
}

// Reset clears all rows and sets the universe to [0, size).
// Zero allocations when the buffer is already large enough.
func (d *Dense) Reset(size uint32) {
	if uint(size) > d.bs.Len() {
		d.bs = bitset.New(uint(size))
	} else {
		d.bs.ClearAll()
	}
	d.size = size
}

// Load replaces the contents with the rows of src that fall inside the universe.
func (d *Dense) Load(src DocSet) {
	d.bs.ClearAll()
	src.ForEach(func(row uint32) bool {
		if row < d.size {
			d.bs.Set(uint(row))
		}
		return true
	})
}

// Add sets a single row. Rows outside the universe are ignored.
func (d *Dense) Add(row uint32) {
	if row < d.size {
		d.bs.Set(uint(row))
	}
}

// Size returns the universe size.
func (d *Dense) Size() uint32 {
	return d.size
}

// Contains reports whether row is present.
func (d *Dense) Contains(row uint32) bool {
	return row < d.size && d.bs.Test(uint(row))
}

// Cardinality returns the number of rows present.
func (d *Dense) Cardinality() uint64 {
	return uint64(d.bs.Count())
}

// ForEach calls fn for each row in ascending order.
func (d *Dense) ForEach(fn func(row uint32) bool) {
	for i, ok := d.bs.NextSet(0); ok && i < uint(d.size); i, ok = d.bs.NextSet(i + 1) {
		if !fn(uint32(i)) {
			return
		}
	}
}
