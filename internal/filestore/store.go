// Package filestore defines the object storage interface used to fetch
// query template catalogs from a bucket instead of the local filesystem.
//
// Callers depend only on this package, never on a specific provider package.
//
// Usage:
//
//	store, err := minio.New(ctx, filestore.DefaultConfig("localhost:9000", "minioadmin", "minioadmin"))
//	if err != nil { ... }
//	defer store.Close()
//
//	obj, err := store.GetObject(ctx, "catalogs", "postgres/queries.json")
package filestore

import (
	"context"
	"io"
	"time"
)

// Store is the read-only interface every storage provider implements.
type Store interface {
	// Ping verifies the storage backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any held resources.
	Close() error

	// ListObjects returns every object under prefix in bucket, recursively.
	ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)

	// GetObject opens a streaming handle to the object at key inside bucket.
	// The caller MUST call Object.Close() after reading.
	GetObject(ctx context.Context, bucket, key string) (Object, error)
}

// ObjectInfo describes a single stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
}

// Object is a streaming handle to an object's content.
type Object interface {
	io.ReadCloser

	Info() *ObjectInfo
}
