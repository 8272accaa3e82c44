// Package objectstore provides a write-only blob sink with two backends:
// local filesystem and S3-compatible storage, selected once at construction
// by the configured output root (spec §4.2).
package objectstore

import (
	"context"
	"fmt"
	"strings"
)

// StorageError wraps a backend failure, per spec §7 "StorageError".
type StorageError struct {
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("object store put failed for key %q: %v", e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Store is the single capability object-store backends expose.
type Store interface {
	// Put writes body under key with contentType. Whole-file, no append.
	Put(ctx context.Context, key string, body []byte, contentType string) error
	// BaseURI returns the logical location under which key-relative
	// artifacts are addressable (a local directory or an s3:// URI).
	BaseURI() string
}

// New selects a backend by inspecting outputRoot: a value starting with
// "s3://" activates the S3 backend, otherwise the local filesystem backend
// is used. The selection is fixed for the life of the process.
func New(ctx context.Context, outputRoot string) (Store, error) {
	if strings.HasPrefix(outputRoot, "s3://") {
		return NewS3(ctx, outputRoot)
	}
	return NewLocal(outputRoot), nil
}
