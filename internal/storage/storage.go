package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned by Get when no object exists under the requested
// key.
var ErrNotFound = errors.New("object not found")

// Package storage contains object storage abstractions for S3-compatible
// backends. Implementations must avoid using local disk and rely on
// streaming I/O only. Uploaded documents are transient: an age-based
// lifecycle rule on the bucket removes anything that explicit post-request
// cleanup missed.

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1
// and the implementation will buffer/chunk as supported by the backend.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is a reusable, S3-compatible object storage client interface.
// Methods use context and streaming readers/writers; no local disk is used.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// List returns the objects stored under the given key prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// DeletePrefix removes every object under the given key prefix.
	// Best effort: it keeps going past individual failures and reports the first one.
	DeletePrefix(ctx context.Context, prefix string) error
}
