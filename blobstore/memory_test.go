package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	data := []byte("payload")
	require.NoError(t, store.Put(ctx, "p/1", data))
	require.NoError(t, store.Put(ctx, "p/2", []byte("two")))
	require.NoError(t, store.Put(ctx, "q/1", []byte("other")))

	// Mutating the caller's slice must not leak into the store.
	data[0] = 'X'

	got, err := Get(ctx, store, "p/1")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))

	names, err := store.List(ctx, "p/")
	require.NoError(t, err)
	assert.Equal(t, []string{"p/1", "p/2"}, names)

	require.NoError(t, store.Delete(ctx, "p/1"))
	_, err = store.Open(ctx, "p/1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryStore().Open(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadAll_Empty(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "empty", nil))

	got, err := Get(ctx, store, "empty")
	require.NoError(t, err)
	assert.Empty(t, got)
}
