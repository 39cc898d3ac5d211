// Package backup snapshots the sqlite result database.
//
// Snapshots are written with VACUUM INTO, which yields a consistent copy
// even while the server holds the database open in WAL mode. After each
// snapshot the oldest files beyond the retention count are removed.
package backup

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	filePrefix = "threadher-"
	fileSuffix = ".db"

	// DefaultKeep is the number of snapshots retained when Options.Keep is unset.
	DefaultKeep = 24
)

// ErrRunning is returned by Restore while a scheduled loop is active.
var ErrRunning = errors.New("backup: scheduled snapshots are running")

// Options configures a Service.
type Options struct {
	Dir    string
	Keep   int
	Verify bool
}

// Snapshot describes one snapshot file.
type Snapshot struct {
	Path     string        `json:"path"`
	Taken    time.Time     `json:"taken"`
	Size     int64         `json:"size"`
	Verified bool          `json:"verified"`
	Duration time.Duration `json:"duration,omitempty"`
}

// Service takes, lists, prunes and restores snapshots of one database file.
type Service struct {
	dbPath string
	opts   Options
	now    func() time.Time

	mu      sync.Mutex
	running bool
	last    time.Time
}

// New prepares a Service for the database at dbPath, creating opts.Dir.
func New(dbPath string, opts Options) (*Service, error) {
	if dbPath == "" {
		return nil, errors.New("backup: database path is required")
	}
	if opts.Dir == "" {
		return nil, errors.New("backup: backup directory is required")
	}
	if opts.Keep <= 0 {
		opts.Keep = DefaultKeep
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("backup: failed to create backup directory: %w", err)
	}
	return &Service{dbPath: dbPath, opts: opts, now: time.Now}, nil
}

// Take writes a new snapshot, verifies it when configured, and prunes old ones.
func (s *Service) Take(ctx context.Context) (Snapshot, error) {
	start := s.now().UTC()
	if _, err := os.Stat(s.dbPath); err != nil {
		return Snapshot{}, fmt.Errorf("backup: database not found: %w", err)
	}

	name := filePrefix + start.Format("20060102-150405.000000") + fileSuffix
	path := filepath.Join(s.opts.Dir, name)
	if err := vacuumInto(ctx, s.dbPath, path); err != nil {
		return Snapshot{Path: path}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return Snapshot{Path: path}, fmt.Errorf("backup: failed to stat snapshot: %w", err)
	}
	snap := Snapshot{Path: path, Taken: start, Size: info.Size()}

	if s.opts.Verify {
		if err := verify(ctx, path); err != nil {
			return snap, fmt.Errorf("backup: snapshot verification failed: %w", err)
		}
		snap.Verified = true
	}
	snap.Duration = s.now().Sub(start)

	s.mu.Lock()
	s.last = snap.Taken
	s.mu.Unlock()

	if err := s.prune(); err != nil {
		log.Printf("backup: warning: failed to prune snapshots: %v", err)
	}
	return snap, nil
}

// List returns the snapshots in the backup directory, newest first.
func (s *Service) List() ([]Snapshot, error) {
	entries, err := os.ReadDir(s.opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("backup: failed to read backup directory: %w", err)
	}

	var snaps []Snapshot
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		taken := info.ModTime()
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
		if t, err := time.Parse("20060102-150405.000000", stamp); err == nil {
			taken = t
		}
		snaps = append(snaps, Snapshot{Path: filepath.Join(s.opts.Dir, name), Taken: taken, Size: info.Size()})
	}

	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Taken.After(snaps[j].Taken) })
	return snaps, nil
}

// prune removes every snapshot beyond the newest opts.Keep.
func (s *Service) prune() error {
	snaps, err := s.List()
	if err != nil {
		return err
	}
	if len(snaps) <= s.opts.Keep {
		return nil
	}
	var lastErr error
	for _, snap := range snaps[s.opts.Keep:] {
		if err := os.Remove(snap.Path); err != nil {
			lastErr = err
		}
	}
	if lastErr != nil {
		return fmt.Errorf("failed to delete some snapshots: %w", lastErr)
	}
	return nil
}

// Restore replaces the database with the snapshot at path. The database must
// not be open elsewhere. On failure the previous contents are put back.
func (s *Service) Restore(ctx context.Context, path string) error {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if running {
		return ErrRunning
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("backup: snapshot not found: %w", err)
	}

	previous := s.dbPath + ".pre-restore"
	if _, err := os.Stat(s.dbPath); err == nil {
		if err := vacuumInto(ctx, s.dbPath, previous); err != nil {
			return fmt.Errorf("backup: failed to save current database: %w", err)
		}
		defer func() { _ = os.Remove(previous) }()
	}

	if err := copyVerified(ctx, path, s.dbPath); err != nil {
		if _, statErr := os.Stat(previous); statErr == nil {
			if rollbackErr := copyVerified(ctx, previous, s.dbPath); rollbackErr != nil {
				return fmt.Errorf("backup: restore failed and rollback failed: %v (restore error: %w)", rollbackErr, err)
			}
			return fmt.Errorf("backup: restore failed, previous database kept: %w", err)
		}
		return err
	}

	log.Printf("backup: database restored from %s", path)
	return nil
}

// Run takes a snapshot every interval until ctx is done.
func (s *Service) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("backup: invalid interval %v", interval)
	}
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrRunning
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.Printf("backup: scheduled snapshots every %v into %s", interval, s.opts.Dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			snap, err := s.Take(ctx)
			if err != nil {
				log.Printf("backup: scheduled snapshot failed: %v", err)
				continue
			}
			log.Printf("backup: snapshot %s (%d bytes, %v)", snap.Path, snap.Size, snap.Duration)
		}
	}
}

// LastTaken reports when the most recent snapshot by this Service completed.
func (s *Service) LastTaken() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
