package minio

import (
	"context"
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/facetcount/blobstore"
)

// TestMinioStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestMinioStore_Integration(t *testing.T) {
	endpoint := "localhost:9000"
	accessKey := "minioadmin"
	secretKey := "minioadmin"
	bucket := "test-facetcount"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()

	// Check if MinIO is reachable
	_, err = client.ListBuckets(ctx)
	if err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		err = client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
		require.NoError(t, err)
	}

	store := NewStore(client, bucket, "test-prefix/")

	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "segments/test.fcs", data))

	blob, err := store.Open(ctx, "segments/test.fcs")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 5)
	n, err := blob.ReadAt(ctx, buf, 6)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	assert.Equal(t, "minio", string(buf))
	require.NoError(t, blob.Close())

	got, err := blobstore.Get(ctx, store, "segments/test.fcs")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	names, err := store.List(ctx, "segments/")
	require.NoError(t, err)
	assert.Contains(t, names, "segments/test.fcs")

	require.NoError(t, store.Delete(ctx, "segments/test.fcs"))

	_, err = store.Open(ctx, "segments/test.fcs")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStore_Key(t *testing.T) {
	s := NewStore(nil, "b", "root/")
	assert.Equal(t, "root/segments/a.fcs", s.key("segments/a.fcs"))

	s = NewStore(nil, "b", "")
	assert.Equal(t, "a.fcs", s.key("a.fcs"))
}

func TestStore_Name(t *testing.T) {
	s := NewStore(nil, "b", "root/")
	assert.Equal(t, "segments/a.fcs", s.name(s.key("segments/a.fcs")))

	s = NewStore(nil, "b", "root")
	assert.Equal(t, "segments/a.fcs", s.name(s.key("segments/a.fcs")))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NotFound"}))
	assert.False(t, isNotFound(minio.ErrorResponse{Code: "AccessDenied"}))
	assert.False(t, isNotFound(errors.New("dial tcp: refused")))
}
