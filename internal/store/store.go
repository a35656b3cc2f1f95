// Package store provides the object-store capability the catalog reads from.
//
// The core consumes the ObjectStore interface; the GCS implementation and the
// in-memory implementation both satisfy it. All failures surface as typed
// errors from internal/errors, never as raw transport errors.
package store

import (
	"context"
	"time"
)

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	// Key is the object's path-like identity within the bucket.
	Key string
	// ETag is the store-supplied content version marker. It changes iff the
	// object bytes change.
	ETag string
	// Size is the object size in bytes.
	Size int64
}

// ObjectStore is the capability contract for the blob store.
type ObjectStore interface {
	// List enumerates all objects under prefix, in no guaranteed order.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// Get fetches the full object bytes.
	Get(ctx context.Context, key string) ([]byte, error)

	// Stat returns metadata for a single object.
	Stat(ctx context.Context, key string) (ObjectInfo, error)

	// PresignedURL returns a time-limited download URL for key.
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Close releases client resources.
	Close() error
}
