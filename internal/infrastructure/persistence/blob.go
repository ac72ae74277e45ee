// Package persistence defines the durable blob store the registries mirror
// into. The in-memory registries stay authoritative for the running process;
// the blob store exists so state survives restarts. Every mutation rewrites
// the relevant blob in full, so backends only need whole-value reads and
// writes.
//
// Backends:
//   - jsonfile: one JSON file per blob under a data directory (default)
//   - redisblob: Redis string values
//   - postgres: a single key/value table
package persistence

import (
	"context"
	"errors"
)

// Blob keys used by the registry mirrors.
const (
	KeyExams     = "exams"
	KeyResources = "resources"
)

// ErrBlobNotFound is returned by Load when no value exists under the key.
// Mirrors treat it as "nothing saved yet", not as a failure.
var ErrBlobNotFound = errors.New("persistence: blob not found")

// BlobStore is a whole-value key/blob store.
type BlobStore interface {
	// Save writes data under key, replacing any previous value.
	Save(ctx context.Context, key string, data []byte) error

	// Load returns the value under key, or ErrBlobNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Close releases backend resources.
	Close() error
}
