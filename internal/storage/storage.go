// Package storage abstracts blob storage for uploaded documents.
//
// Documents are addressed by a locator: a URL understood by the underlying
// storage service (file://, s3://, gs://, or mem:// in tests). The ingestion
// pipeline only ever needs Get; Put and Delete exist for the upload path and
// document deletion respectively.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound indicates the locator does not resolve to a stored object.
var ErrNotFound = errors.New("object not found")

// Storage provides access to raw document bytes by locator.
type Storage interface {
	// Get fetches the object at the given locator.
	// Returns ErrNotFound (wrapped) when the object does not exist.
	Get(ctx context.Context, locator string) ([]byte, error)

	// Put stores the object bytes at the given locator, overwriting any
	// previous content.
	Put(ctx context.Context, locator string, data []byte) error

	// Delete removes the object. Deleting a missing object is a no-op.
	Delete(ctx context.Context, locator string) error
}

// Error wraps a storage failure with the locator that triggered it.
// It preserves the underlying error for errors.Is/As.
type Error struct {
	Locator string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Locator, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
