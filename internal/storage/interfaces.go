// Package storage provides the persistence ports used by the ThreadHer tool
// functions.
//
// Two small interfaces cover everything the tools persist: ResultStore for
// derived results (carbon reports, circular options, garment analyses) and
// BlobStore for uploaded images. Backends live in subpackages (dynamo, sqlite,
// postgres, memory, s3blob, localblob) and are selected by configuration.
package storage

import "context"

// ResultStore is a key-value store for derived results.
type ResultStore interface {
	// Put creates or replaces the record identified by (rec.Table, rec.ID).
	Put(ctx context.Context, rec Record) error

	// Get retrieves a record's item. keyAttr names the primary-key attribute
	// for backends that need it. Returns ErrNotFound when absent.
	Get(ctx context.Context, table, keyAttr, id string) (map[string]any, error)

	// Close releases any resources held by the store.
	Close() error
}

// BlobStore holds uploaded images.
type BlobStore interface {
	// Get returns the object's bytes. Returns an error wrapping ErrNotFound
	// when the object does not exist.
	Get(ctx context.Context, bucket, key string) ([]byte, error)

	// Put stores data under bucket/key.
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error
}
