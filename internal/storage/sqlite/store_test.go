package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadher/threadher/internal/storage"
)

func newTestStore(t *testing.T) *ResultStore {
	t.Helper()
	store, err := NewResultStore(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestResultStore_PutGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec, err := storage.NewRecord("ThreadHerCalculations", "calculation_id", "req-1", map[string]any{
		"sustainability_score": 82.5,
		"garment_type":         "t-shirt",
	})
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, rec))

	item, err := store.Get(ctx, "ThreadHerCalculations", "calculation_id", "req-1")
	require.NoError(t, err)
	assert.Equal(t, "req-1", item["calculation_id"])
	assert.Equal(t, 82.5, item["sustainability_score"])
	assert.Equal(t, "t-shirt", item["garment_type"])
}

func TestResultStore_PutOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := storage.Record{Table: "T", KeyAttr: "id", ID: "a", Item: map[string]any{"v": "one"}}
	require.NoError(t, store.Put(ctx, rec))
	rec.Item = map[string]any{"v": "two"}
	require.NoError(t, store.Put(ctx, rec))

	item, err := store.Get(ctx, "T", "id", "a")
	require.NoError(t, err)
	assert.Equal(t, "two", item["v"])

	n, err := store.Count(ctx, "T")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestResultStore_TablesAreIsolated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, storage.Record{Table: "A", KeyAttr: "id", ID: "x", Item: map[string]any{}}))

	_, err := store.Get(ctx, "B", "id", "x")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestResultStore_RejectsInvalidRecord(t *testing.T) {
	store := newTestStore(t)
	err := store.Put(context.Background(), storage.Record{Table: "A"})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestResultStore_ReopenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	ctx := context.Background()

	store, err := NewResultStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, storage.Record{Table: "A", KeyAttr: "id", ID: "x", Item: map[string]any{"k": "v"}}))
	require.NoError(t, store.Close())

	// migrations are idempotent across reopen
	store, err = NewResultStore(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	item, err := store.Get(ctx, "A", "id", "x")
	require.NoError(t, err)
	assert.Equal(t, "v", item["k"])
}

func TestDBPathFromDSN(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{":memory:", ""},
		{"", ""},
		{"/var/lib/threadher.db", "/var/lib/threadher.db"},
		{"file:/tmp/x.db?mode=rwc", "/tmp/x.db"},
		{"file::memory:?cache=shared", ""},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			assert.Equal(t, tt.want, dbPathFromDSN(tt.dsn))
		})
	}
}
