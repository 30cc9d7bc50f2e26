// Package storage is a small object store bound to one bucket. It backs the
// S3 and GCS secret stores: one JSON object per site under a key prefix.
package storage

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrObjectNotFound is returned by Get when the key does not exist.
	ErrObjectNotFound = errors.New("storage: object not found")
	// ErrPreconditionFailed is returned by Put with IfAbsent when the key exists.
	ErrPreconditionFailed = errors.New("storage: precondition failed")
)

// Storage defines object storage operations.
type Storage interface {
	io.Closer

	// Put writes data at key. With IfAbsent the write only succeeds when no
	// object exists, otherwise ErrPreconditionFailed.
	Put(ctx context.Context, key string, data []byte, opts PutOptions) error
	Get(ctx context.Context, key string) ([]byte, error)
	// Exists issues a metadata request; both backends are strongly consistent
	// for read-after-write.
	Exists(ctx context.Context, key string) (bool, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns every key under prefix, following pagination.
	List(ctx context.Context, prefix string) ([]string, error)
}

// PutOptions configures upload behavior.
type PutOptions struct {
	ContentType string
	IfAbsent    bool
}
