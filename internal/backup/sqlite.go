package backup

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	_ "modernc.org/sqlite"
)

func openReadOnly(path string) (*sql.DB, error) {
	return sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
}

// vacuumInto writes a consistent copy of the database at src to dest.
func vacuumInto(ctx context.Context, src, dest string) error {
	db, err := openReadOnly(src)
	if err != nil {
		return fmt.Errorf("backup: failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("backup: failed to ping database: %w", err)
	}
	quoted := strings.ReplaceAll(dest, "'", "''")
	if _, err := db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", quoted)); err != nil {
		return fmt.Errorf("backup: failed to snapshot database: %w", err)
	}
	return nil
}

// verify runs PRAGMA integrity_check against the file at path.
func verify(ctx context.Context, path string) error {
	db, err := openReadOnly(path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("failed to run integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}

// copyVerified checks src, copies it over dest and checks the result.
func copyVerified(ctx context.Context, src, dest string) error {
	if err := verify(ctx, src); err != nil {
		return fmt.Errorf("backup: snapshot verification failed: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("backup: failed to open snapshot: %w", err)
	}
	defer func() { _ = in.Close() }()

	// Stale WAL files would be replayed over the restored pages.
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(dest + suffix)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("backup: failed to create database file: %w", err)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("backup: failed to copy snapshot: %w", err)
	}
	if err := out.Sync(); err != nil {
		return fmt.Errorf("backup: failed to sync database file: %w", err)
	}

	if err := verify(ctx, dest); err != nil {
		return fmt.Errorf("backup: restored database verification failed: %w", err)
	}
	return nil
}
