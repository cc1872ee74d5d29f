package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/facetcount/blobstore"
	"github.com/hupe1980/facetcount/codec"
	"github.com/hupe1980/facetcount/internal/resource"
	"github.com/hupe1980/facetcount/metadata"
	"github.com/hupe1980/facetcount/model"
)

func TestSegmentName(t *testing.T) {
	name := SegmentName("segments", 42)
	assert.Equal(t, "segments/seg-00000000000000000042.fcs", name)

	id, ok := ParseSegmentName(name)
	require.True(t, ok)
	assert.Equal(t, uint64(42), uint64(id))

	_, ok = ParseSegmentName("segments/manifest.json")
	assert.False(t, ok)
}

func TestEncodeDecode(t *testing.T) {
	ctx := context.Background()

	for _, c := range []codec.Compression{codec.CompressionNone, codec.CompressionLZ4, codec.CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			seg := NewMemSegment(9, testDocs())
			_, err := seg.Delete(1)
			require.NoError(t, err)

			data, err := EncodeSegment(ctx, seg, WriteOptions{Compression: c})
			require.NoError(t, err)

			got, err := DecodeSegment(data)
			require.NoError(t, err)

			assert.Equal(t, seg.ID(), got.ID())
			assert.Equal(t, seg.MaxDoc(), got.MaxDoc())
			assert.False(t, got.LiveDocs().IsLive(1))

			rb, err := got.Terms(ctx, "genre", metadata.String("rock"))
			require.NoError(t, err)
			assert.Equal(t, []uint32{0, 2, 4}, rb.ToArray())

			doc, ok := got.Document(0)
			require.True(t, ok)
			assert.Equal(t, "rock", doc["genre"].StringValue())
		})
	}
}

func TestDecode_Corrupt(t *testing.T) {
	seg := NewMemSegment(1, testDocs())
	data, err := EncodeSegment(context.Background(), seg, WriteOptions{Codec: codec.JSON{}})
	require.NoError(t, err)

	flipped := append([]byte(nil), data...)
	flipped[len(flipped)-1] ^= 0xff
	_, err = DecodeSegment(flipped)
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = DecodeSegment(data[:10])
	assert.ErrorIs(t, err, ErrCorrupt)

	badMagic := append([]byte(nil), data...)
	badMagic[0] = 'X'
	_, err = DecodeSegment(badMagic)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestOpenReader(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	for _, id := range []uint64{3, 1, 2} {
		_, err := WriteSegment(ctx, store, "idx", NewMemSegment(modelID(id), testDocs()), WriteOptions{Compression: codec.CompressionZSTD})
		require.NoError(t, err)
	}
	require.NoError(t, store.Put(ctx, "idx/README", []byte("ignored")))

	rc := resource.NewController(resource.Config{MaxLoadWorkers: 2})
	r, err := OpenReader(ctx, store, "idx", OpenOptions{Resource: rc})
	require.NoError(t, err)

	require.Equal(t, 3, r.NumSegments())
	for i, s := range r.Segments() {
		assert.Equal(t, uint64(i+1), uint64(s.ID()), "segments are ordered by id")
	}
	assert.Equal(t, uint64(15), r.NumDocs())
}

func TestOpenReader_CorruptSegmentIsAccessError(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, SegmentName("idx", 5), []byte("garbage")))

	_, err := OpenReader(ctx, store, "idx", OpenOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIndexAccess)
	assert.ErrorIs(t, err, ErrCorrupt)

	var ae *AccessError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, uint64(5), uint64(ae.SegmentID))
}

func TestOpenReader_Empty(t *testing.T) {
	r, err := OpenReader(context.Background(), blobstore.NewMemoryStore(), "idx", OpenOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, r.NumSegments())
}

func modelID(id uint64) model.SegmentID { return model.SegmentID(id) }
