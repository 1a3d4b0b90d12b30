// Package kv defines the durable string mapping that backs the record store,
// along with its memory, file, MySQL and S3 implementations.
package kv

import "context"

// Store is a durable mapping from string keys to string values.
// Every operation may fail with an I/O error.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	// Clear removes every key.
	Clear(ctx context.Context) error
}
