package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadher/threadher/internal/storage"
	"github.com/threadher/threadher/internal/storage/sqlite"
)

// seedDB creates a results database holding one calculation per id.
func seedDB(t *testing.T, path string, ids ...string) {
	t.Helper()
	ctx := context.Background()
	store, err := sqlite.NewResultStore(ctx, path)
	require.NoError(t, err)
	for _, id := range ids {
		rec, err := storage.NewRecord("ThreadHerCalculations", "calculation_id", id, map[string]any{"total_carbon_footprint_kg": 7.0})
		require.NoError(t, err)
		require.NoError(t, store.Put(ctx, rec))
	}
	require.NoError(t, store.Close())
}

func readIDs(t *testing.T, path string, ids ...string) map[string]bool {
	t.Helper()
	ctx := context.Background()
	store, err := sqlite.NewResultStore(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	found := map[string]bool{}
	for _, id := range ids {
		_, err := store.Get(ctx, "ThreadHerCalculations", "calculation_id", id)
		found[id] = err == nil
	}
	return found
}

// steppedClock advances one minute per call.
func steppedClock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
}

func TestNew_RequiresPaths(t *testing.T) {
	_, err := New("", Options{Dir: t.TempDir()})
	assert.ErrorContains(t, err, "database path")

	_, err = New("x.db", Options{})
	assert.ErrorContains(t, err, "backup directory")

	dir := filepath.Join(t.TempDir(), "nested", "backups")
	svc, err := New("x.db", Options{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, DefaultKeep, svc.opts.Keep)
	assert.DirExists(t, dir)
}

func TestTake_VerifiedSnapshot(t *testing.T) {
	root := t.TempDir()
	db := filepath.Join(root, "threadher.db")
	seedDB(t, db, "calc-1")

	svc, err := New(db, Options{Dir: filepath.Join(root, "backups"), Verify: true})
	require.NoError(t, err)

	snap, err := svc.Take(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Verified)
	assert.Positive(t, snap.Size)
	assert.FileExists(t, snap.Path)
	assert.Equal(t, snap.Taken, svc.LastTaken())
	assert.True(t, readIDs(t, snap.Path, "calc-1")["calc-1"])
}

func TestTake_MissingDatabase(t *testing.T) {
	svc, err := New(filepath.Join(t.TempDir(), "absent.db"), Options{Dir: t.TempDir()})
	require.NoError(t, err)

	_, err = svc.Take(context.Background())
	assert.ErrorContains(t, err, "database not found")
}

func TestTake_PrunesBeyondKeep(t *testing.T) {
	root := t.TempDir()
	db := filepath.Join(root, "threadher.db")
	seedDB(t, db, "calc-1")

	svc, err := New(db, Options{Dir: filepath.Join(root, "backups"), Keep: 2})
	require.NoError(t, err)
	svc.now = steppedClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	var taken []Snapshot
	for i := 0; i < 4; i++ {
		snap, err := svc.Take(context.Background())
		require.NoError(t, err)
		taken = append(taken, snap)
	}

	snaps, err := svc.List()
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, taken[3].Path, snaps[0].Path)
	assert.Equal(t, taken[2].Path, snaps[1].Path)
	assert.NoFileExists(t, taken[0].Path)
}

func TestList_IgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.db"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "threadher-nested.db"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "threadher-20260301-090000.000000.db"), []byte("x"), 0o644))

	svc, err := New("x.db", Options{Dir: dir})
	require.NoError(t, err)
	snaps, err := svc.List()
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), snaps[0].Taken)
}

func TestRestore_ReplacesDatabase(t *testing.T) {
	root := t.TempDir()
	db := filepath.Join(root, "threadher.db")
	seedDB(t, db, "calc-1")

	svc, err := New(db, Options{Dir: filepath.Join(root, "backups"), Verify: true})
	require.NoError(t, err)
	snap, err := svc.Take(context.Background())
	require.NoError(t, err)

	seedDB(t, db, "calc-2")
	require.True(t, readIDs(t, db, "calc-2")["calc-2"])

	require.NoError(t, svc.Restore(context.Background(), snap.Path))
	found := readIDs(t, db, "calc-1", "calc-2")
	assert.True(t, found["calc-1"])
	assert.False(t, found["calc-2"])
	assert.NoFileExists(t, db+".pre-restore")
}

func TestRestore_RejectsCorruptSnapshot(t *testing.T) {
	root := t.TempDir()
	db := filepath.Join(root, "threadher.db")
	seedDB(t, db, "calc-1")

	bad := filepath.Join(root, "threadher-bad.db")
	require.NoError(t, os.WriteFile(bad, []byte("not a database"), 0o644))

	svc, err := New(db, Options{Dir: filepath.Join(root, "backups")})
	require.NoError(t, err)
	assert.Error(t, svc.Restore(context.Background(), bad))
	assert.True(t, readIDs(t, db, "calc-1")["calc-1"])

	assert.ErrorContains(t, svc.Restore(context.Background(), filepath.Join(root, "missing.db")), "snapshot not found")
}

func TestRun_SnapshotsUntilCancelled(t *testing.T) {
	root := t.TempDir()
	db := filepath.Join(root, "threadher.db")
	seedDB(t, db, "calc-1")

	svc, err := New(db, Options{Dir: filepath.Join(root, "backups")})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx, 20*time.Millisecond) }()

	assert.Eventually(t, func() bool {
		snaps, err := svc.List()
		return err == nil && len(snaps) > 0
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.NoError(t, svc.Restore(context.Background(), mustLatest(t, svc)))

	assert.Error(t, svc.Run(context.Background(), 0))
}

func mustLatest(t *testing.T, svc *Service) string {
	t.Helper()
	snaps, err := svc.List()
	require.NoError(t, err)
	require.NotEmpty(t, snaps)
	return snaps[0].Path
}
