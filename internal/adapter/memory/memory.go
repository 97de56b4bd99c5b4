// Package memory implements an in-memory blob store for development and testing.
package memory

import (
	"context"
	"sync"

	"foodfollow/internal/domain"
)

// DB implements an in-memory key/value storage.
type DB struct {
	mu    sync.Mutex
	blobs map[string]string
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{blobs: make(map[string]string)}
}

// Ensure interfaces are met.
var _ domain.BlobStore = (*DB)(nil)

// Get returns the value stored under key.
func (db *DB) Get(_ context.Context, key string) (string, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	v, ok := db.blobs[key]
	return v, ok, nil
}

// Set stores value under key, replacing any previous value.
func (db *DB) Set(_ context.Context, key, value string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.blobs[key] = value
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (db *DB) Delete(_ context.Context, key string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.blobs, key)
	return nil
}

// Close is a no-op.
func (db *DB) Close() error { return nil }
