package localblob

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadher/threadher/internal/storage"
)

func TestStore_PutGet(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "garments", "uploads/s1/a.jpg", []byte("img"), "image/jpeg"))

	_, err = os.Stat(filepath.Join(dir, "garments", "uploads", "s1", "a.jpg"))
	require.NoError(t, err)

	data, err := store.Get(ctx, "garments", "uploads/s1/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("img"), data)
}

func TestStore_GetMissing(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "garments", "nope.jpg")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_RejectsTraversal(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"../../etc/passwd", "../other/x"} {
		err := store.Put(ctx, "b", key, []byte("x"), "")
		assert.ErrorIs(t, err, storage.ErrInvalidInput, key)
	}
	_, err = store.Get(ctx, "..", "x")
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestNew_RequiresDir(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
