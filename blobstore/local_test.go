package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBlobStore_Lifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)

	ctx := context.Background()

	blobName := "segments/seg-0001.fcs"
	data := []byte("hello world, this is a test segment blob")

	require.NoError(t, store.Put(ctx, blobName, data))

	_, err := os.Stat(filepath.Join(tmpDir, "segments", "seg-0001.fcs"))
	require.NoError(t, err)

	blob, err := store.Open(ctx, blobName)
	require.NoError(t, err)
	defer blob.Close()

	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 5)
	n, err := blob.ReadAt(ctx, buf, 6)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "world", string(buf))

	all, err := ReadAll(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, data, all)

	require.NoError(t, store.Put(ctx, "segments/seg-0002.fcs", []byte("x")))
	require.NoError(t, store.Put(ctx, "other.txt", []byte("y")))

	names, err := store.List(ctx, "segments/")
	require.NoError(t, err)
	require.Equal(t, []string{"segments/seg-0001.fcs", "segments/seg-0002.fcs"}, names)

	require.NoError(t, store.Delete(ctx, "segments/seg-0002.fcs"))
	require.NoError(t, store.Delete(ctx, "segments/seg-0002.fcs"), "deleting twice is fine")

	_, err = store.Open(ctx, "segments/seg-0002.fcs")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocalBlobStore_ListMissingRoot(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "missing"))

	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLocalBlobStore_ReadPastEnd(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "a", []byte("abc")))

	blob, err := store.Open(ctx, "a")
	require.NoError(t, err)
	defer blob.Close()

	buf := make([]byte, 8)
	n, err := blob.ReadAt(ctx, buf, 1)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)

	_, err = blob.ReadAt(ctx, buf, 10)
	assert.ErrorIs(t, err, io.EOF)
}
