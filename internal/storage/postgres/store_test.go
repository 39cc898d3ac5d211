package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadher/threadher/internal/storage"
	"github.com/threadher/threadher/internal/storage/postgres"
)

// postgresTestDSN returns the DSN for the test database.
// If POSTGRES_TEST_DSN is not set, tests are skipped.
func postgresTestDSN(t *testing.T) string {
	t.Helper()

	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set; skipping PostgreSQL integration tests")
	}
	return dsn
}

func newTestStore(t *testing.T) *postgres.ResultStore {
	t.Helper()

	store, err := postgres.NewResultStore(context.Background(), postgresTestDSN(t))
	require.NoError(t, err, "NewResultStore should succeed")
	require.NoError(t, store.TruncateForTest(context.Background()))

	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func TestResultStore_PutGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec, err := storage.NewRecord("ThreadHerGarments", "garment_id", "g-1", map[string]any{
		"analysis": map[string]any{"garment_type": "jeans"},
	})
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, rec))

	item, err := store.Get(ctx, "ThreadHerGarments", "garment_id", "g-1")
	require.NoError(t, err)
	assert.Equal(t, "g-1", item["garment_id"])
	assert.Equal(t, "jeans", item["analysis"].(map[string]any)["garment_type"])
}

func TestResultStore_Upsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := storage.Record{Table: "T", KeyAttr: "id", ID: "a", Item: map[string]any{"v": "one"}}
	require.NoError(t, store.Put(ctx, rec))
	rec.Item = map[string]any{"v": "two"}
	require.NoError(t, store.Put(ctx, rec))

	item, err := store.Get(ctx, "T", "id", "a")
	require.NoError(t, err)
	assert.Equal(t, "two", item["v"])
}

func TestResultStore_NotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), "T", "id", "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
