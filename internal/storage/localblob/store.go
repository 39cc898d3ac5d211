// Package localblob implements storage.BlobStore on the local filesystem,
// laid out as <root>/<bucket>/<key>.
package localblob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/threadher/threadher/internal/storage"
)

// Store is a directory-backed blob store.
type Store struct {
	root string
}

// New returns a Store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("localblob: %w: root directory is required", storage.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("localblob: failed to create %s: %w", dir, err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("localblob: %w", err)
	}
	return &Store{root: abs}, nil
}

// path resolves bucket/key under root. The bucket must stay under root and
// the key under its bucket.
func (s *Store) path(bucket, key string) (string, error) {
	if bucket == "" || key == "" {
		return "", fmt.Errorf("localblob: %w: bucket and key are required", storage.ErrInvalidInput)
	}
	bucketDir := filepath.Join(s.root, bucket)
	p := filepath.Join(bucketDir, filepath.FromSlash(key))
	if !within(s.root, bucketDir) || !within(bucketDir, p) {
		return "", fmt.Errorf("localblob: %w: %s/%s escapes root", storage.ErrInvalidInput, bucket, key)
	}
	return p, nil
}

func within(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	return err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Get reads an object.
func (s *Store) Get(_ context.Context, bucket, key string) ([]byte, error) {
	p, err := s.path(bucket, key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s/%s: %w", bucket, key, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("localblob: failed to read %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// Put writes an object atomically via a temp file and rename. The content
// type is not recorded.
func (s *Store) Put(_ context.Context, bucket, key string, data []byte, _ string) error {
	p, err := s.path(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("localblob: failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".blob-*")
	if err != nil {
		return fmt.Errorf("localblob: failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("localblob: failed to write %s/%s: %w", bucket, key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("localblob: failed to write %s/%s: %w", bucket, key, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("localblob: failed to commit %s/%s: %w", bucket, key, err)
	}
	return nil
}

var _ storage.BlobStore = (*Store)(nil)
