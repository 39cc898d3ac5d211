// Package memory provides in-process ResultStore and BlobStore
// implementations for development and tests.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/threadher/threadher/internal/storage"
)

// ResultStore keeps records in a map keyed by table and ID.
type ResultStore struct {
	mu     sync.RWMutex
	tables map[string]map[string]map[string]any
}

// NewResultStore returns an empty ResultStore.
func NewResultStore() *ResultStore {
	return &ResultStore{tables: make(map[string]map[string]map[string]any)}
}

// Put stores a shallow copy of rec.Item.
func (s *ResultStore) Put(_ context.Context, rec storage.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[rec.Table]
	if !ok {
		t = make(map[string]map[string]any)
		s.tables[rec.Table] = t
	}
	t[rec.ID] = maps.Clone(rec.Item)
	return nil
}

// Get returns a shallow copy of the stored item.
func (s *ResultStore) Get(_ context.Context, table, _ string, id string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.tables[table][id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", table, id, storage.ErrNotFound)
	}
	return maps.Clone(item), nil
}

// IDs returns the sorted record IDs stored in table.
func (s *ResultStore) IDs(table string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.tables[table]))
}

// Close is a no-op.
func (s *ResultStore) Close() error { return nil }

// BlobStore keeps objects in a map keyed by bucket and key.
type BlobStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewBlobStore returns an empty BlobStore.
func NewBlobStore() *BlobStore {
	return &BlobStore{objects: make(map[string][]byte)}
}

func blobKey(bucket, key string) string { return bucket + "/" + key }

// Get returns a copy of the object.
func (b *BlobStore) Get(_ context.Context, bucket, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.objects[blobKey(bucket, key)]
	if !ok {
		return nil, fmt.Errorf("s3://%s/%s: %w", bucket, key, storage.ErrNotFound)
	}
	return slices.Clone(data), nil
}

// Put stores a copy of data.
func (b *BlobStore) Put(_ context.Context, bucket, key string, data []byte, _ string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[blobKey(bucket, key)] = slices.Clone(data)
	return nil
}

var (
	_ storage.ResultStore = (*ResultStore)(nil)
	_ storage.BlobStore   = (*BlobStore)(nil)
)
