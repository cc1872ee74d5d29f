package index

import (
	"context"
	"errors"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/facetcount/metadata"
)

func testDocs() []metadata.Document {
	return []metadata.Document{
		{"genre": metadata.String("rock"), "year": metadata.Int(1999)},
		{"genre": metadata.String("jazz"), "year": metadata.Int(2005)},
		{"genre": metadata.String("rock"), "year": metadata.Float(2005)},
		{"genre": metadata.String("pop")},
		{"genre": metadata.String("rock"), "year": metadata.Int(2020)},
	}
}

func TestMemSegment_Terms(t *testing.T) {
	ctx := context.Background()
	seg := NewMemSegment(7, testDocs())

	assert.Equal(t, uint32(5), seg.MaxDoc())

	rb, err := seg.Terms(ctx, "genre", metadata.String("rock"))
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 2, 4}, rb.ToArray())

	// Int and integral float share a posting list.
	rb, err = seg.Terms(ctx, "year", metadata.Int(2005))
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2}, rb.ToArray())

	rb, err = seg.Terms(ctx, "missing", metadata.String("x"))
	require.NoError(t, err)
	assert.True(t, rb.IsEmpty())

	// Returned bitmaps are copies.
	rb, _ = seg.Terms(ctx, "genre", metadata.String("pop"))
	rb.Add(0)
	again, _ := seg.Terms(ctx, "genre", metadata.String("pop"))
	assert.Equal(t, []uint32{3}, again.ToArray())
}

func TestMemSegment_ScanOrderAndStop(t *testing.T) {
	seg := NewMemSegment(1, testDocs())

	var rows []uint32
	err := seg.Scan(context.Background(), func(row uint32, _ metadata.Document) bool {
		rows = append(rows, row)
		return row < 2
	})
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2}, rows)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = seg.Scan(ctx, func(uint32, metadata.Document) bool { return true })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemSegment_DeleteAndLiveDocs(t *testing.T) {
	seg := NewMemSegment(1, testDocs())

	before := seg.LiveDocs()
	assert.Equal(t, uint64(5), before.NumLive())
	assert.Equal(t, uint64(0), before.Generation())

	changed, err := seg.Delete(2)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = seg.Delete(2)
	require.NoError(t, err)
	assert.False(t, changed, "second delete is a no-op")

	_, err = seg.Delete(5)
	assert.ErrorIs(t, err, ErrRowOutOfRange)

	after := seg.LiveDocs()
	assert.Equal(t, uint64(1), after.Generation())
	assert.False(t, after.IsLive(2))
	assert.True(t, after.IsLive(3))
	assert.False(t, after.IsLive(5))
	assert.Equal(t, uint64(4), after.NumLive())

	// The old snapshot is unaffected.
	assert.True(t, before.IsLive(2))

	rb := roaring.BitmapOf(0, 2, 4, 9)
	after.Restrict(rb)
	assert.Equal(t, []uint32{0, 4}, rb.ToArray())

	assert.Equal(t, []uint32{0, 1, 3, 4}, after.Bitmap().ToArray())
}

func TestTombstones(t *testing.T) {
	ts := NewTombstones()
	assert.True(t, ts.MarkDeleted(1, 3))
	assert.False(t, ts.MarkDeleted(3))
	assert.True(t, ts.MarkDeleted(3, 4))

	assert.Equal(t, uint64(2), ts.Generation())
	assert.Equal(t, uint64(3), ts.Count())
	assert.Equal(t, []uint32{1, 3, 4}, ts.Rows())
	assert.True(t, ts.IsDeleted(4))

	snap := ts.Snapshot(4)
	assert.Equal(t, uint64(2), snap.NumDeleted(), "row 4 is beyond maxDoc")
	assert.Equal(t, uint64(2), snap.NumLive())

	assert.Equal(t, uint64(3), AllLive(3).NumLive())
}

func TestReader(t *testing.T) {
	a := NewMemSegment(1, testDocs())
	b := NewMemSegment(2, testDocs()[:2])
	_, err := b.Delete(0)
	require.NoError(t, err)

	r, err := NewReader(a, b)
	require.NoError(t, err)

	assert.Equal(t, 2, r.NumSegments())
	assert.Equal(t, uint64(7), r.MaxDoc())
	assert.Equal(t, uint64(6), r.NumDocs())

	s, err := r.Segment(2)
	require.NoError(t, err)
	assert.Same(t, b, s)

	_, err = r.Segment(3)
	assert.ErrorIs(t, err, ErrSegmentNotFound)

	_, err = NewReader(a, a)
	assert.ErrorIs(t, err, ErrDuplicateSegment)
}

func TestAccessError(t *testing.T) {
	cause := errors.New("disk gone")
	err := error(NewAccessError(3, "read", cause))

	assert.ErrorIs(t, err, ErrIndexAccess)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "segment 3")

	var ae *AccessError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "read", ae.Op)
}
