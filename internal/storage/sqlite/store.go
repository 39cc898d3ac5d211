// Package sqlite implements storage.ResultStore on a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/exec"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/threadher/threadher/internal/storage"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// ResultStore keeps every logical table in a single results table keyed by
// (table_name, id), with the item stored as JSON.
type ResultStore struct {
	db *sql.DB
}

// NewResultStore opens dsn, retrying once after clearing stale WAL files
// left behind by a crashed process.
func NewResultStore(ctx context.Context, dsn string) (*ResultStore, error) {
	store, err := openResultStore(ctx, dsn)
	if err == nil {
		return store, nil
	}

	if !isRecoverableWALError(err) {
		return nil, err
	}

	dbPath := dbPathFromDSN(dsn)
	if dbPath == "" || !isWALStale(dbPath) {
		return nil, err
	}

	removeStaleWAL(dbPath)

	store, retryErr := openResultStore(ctx, dsn)
	if retryErr != nil {
		return nil, fmt.Errorf("failed after WAL recovery: %w (original: %v)", retryErr, err)
	}

	log.Printf("sqlite: recovered from stale WAL files for %s", dbPath)
	return store, nil
}

func openResultStore(ctx context.Context, dsn string) (*ResultStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer at a time; WAL lets readers proceed.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	mgr, err := storage.NewMigrationManager(db, migrationFiles, "migrations", storage.QuestionPlaceholder)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	if err := mgr.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: %w", err)
	}

	return &ResultStore{db: db}, nil
}

// Put upserts rec.
func (s *ResultStore) Put(ctx context.Context, rec storage.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(rec.Item)
	if err != nil {
		return fmt.Errorf("sqlite: failed to marshal item: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO results (table_name, id, key_attr, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(table_name, id) DO UPDATE SET
			key_attr = excluded.key_attr,
			payload = excluded.payload,
			updated_at = CURRENT_TIMESTAMP
	`, rec.Table, rec.ID, rec.KeyAttr, string(payload))
	if err != nil {
		return fmt.Errorf("sqlite: failed to store %s/%s: %w", rec.Table, rec.ID, err)
	}
	return nil
}

// Get loads one item.
func (s *ResultStore) Get(ctx context.Context, table, _ string, id string) (map[string]any, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM results WHERE table_name = ? AND id = ?", table, id,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", table, id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to load %s/%s: %w", table, id, err)
	}

	var item map[string]any
	if err := json.Unmarshal([]byte(payload), &item); err != nil {
		return nil, fmt.Errorf("sqlite: corrupt payload for %s/%s: %w", table, id, err)
	}
	return item, nil
}

// Count returns the number of items stored under table.
func (s *ResultStore) Count(ctx context.Context, table string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM results WHERE table_name = ?", table).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: failed to count %s: %w", table, err)
	}
	return n, nil
}

// Close checkpoints the WAL so the next process opens a clean database.
func (s *ResultStore) Close() error {
	if s.db == nil {
		return nil
	}
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		log.Printf("sqlite: WAL checkpoint on close failed (non-fatal): %v", err)
	}
	return s.db.Close()
}

// dbPathFromDSN extracts the filesystem path from a SQLite DSN. It returns
// "" for in-memory databases.
func dbPathFromDSN(dsn string) string {
	if dsn == ":memory:" || dsn == "" {
		return ""
	}
	if strings.HasPrefix(dsn, "file:") {
		u, err := url.Parse(dsn)
		if err != nil {
			return ""
		}
		p := u.Path
		if p == "" {
			p = u.Opaque
		}
		if p == ":memory:" {
			return ""
		}
		return p
	}
	return dsn
}

func isRecoverableWALError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "disk I/O error") ||
		strings.Contains(msg, "database is locked")
}

// isWALStale reports whether -shm/-wal files exist and no process holds
// them open. Without lsof it answers false.
func isWALStale(dbPath string) bool {
	shmPath := dbPath + "-shm"
	walPath := dbPath + "-wal"
	if !fileExists(shmPath) && !fileExists(walPath) {
		return false
	}

	lsofPath, err := exec.LookPath("lsof")
	if err != nil {
		return false
	}
	output, err := exec.Command(lsofPath, "-t", dbPath, shmPath, walPath).Output()
	if err != nil {
		// lsof exits 1 when nothing holds the files.
		return true
	}
	return strings.TrimSpace(string(output)) == ""
}

func removeStaleWAL(dbPath string) {
	for _, suffix := range []string{"-shm", "-wal"} {
		p := dbPath + suffix
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			log.Printf("sqlite: failed to remove stale %s: %v", p, err)
		}
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

var _ storage.ResultStore = (*ResultStore)(nil)
