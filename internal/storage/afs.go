package storage

import (
	"bytes"
	"context"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

// AFS is a Storage backed by the viant/afs abstract file service.
// The scheme of the locator selects the backend (file://, s3://, mem://, ...),
// so the same implementation serves production and tests.
//
// AFS is safe for concurrent use.
type AFS struct {
	fs afs.Service
}

// NewAFS creates a Storage over the default afs service.
func NewAFS() *AFS {
	return &AFS{fs: afs.New()}
}

// Get implements Storage.
func (s *AFS) Get(ctx context.Context, locator string) ([]byte, error) {
	exists, err := s.fs.Exists(ctx, locator)
	if err != nil {
		return nil, &Error{Locator: locator, Err: err}
	}
	if !exists {
		return nil, &Error{Locator: locator, Err: ErrNotFound}
	}

	data, err := s.fs.DownloadWithURL(ctx, locator)
	if err != nil {
		return nil, &Error{Locator: locator, Err: err}
	}
	return data, nil
}

// Put implements Storage.
func (s *AFS) Put(ctx context.Context, locator string, data []byte) error {
	if err := s.fs.Upload(ctx, locator, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return &Error{Locator: locator, Err: err}
	}
	return nil
}

// Delete implements Storage. Missing objects are not an error.
func (s *AFS) Delete(ctx context.Context, locator string) error {
	exists, err := s.fs.Exists(ctx, locator)
	if err != nil {
		return &Error{Locator: locator, Err: err}
	}
	if !exists {
		return nil
	}
	if err := s.fs.Delete(ctx, locator); err != nil {
		return &Error{Locator: locator, Err: err}
	}
	return nil
}
