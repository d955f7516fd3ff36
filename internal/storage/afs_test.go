package storage

import (
	"context"
	"errors"
	"testing"
)

func TestAFS_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewAFS()
	locator := "mem://localhost/devdocs/docs/u1/spec.md"

	if err := s.Put(ctx, locator, []byte("# hello")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	data, err := s.Get(ctx, locator)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "# hello" {
		t.Errorf("Get = %q, want %q", data, "# hello")
	}

	if err := s.Delete(ctx, locator); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := s.Get(ctx, locator); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete: err = %v, want ErrNotFound", err)
	}
}

func TestAFS_GetMissing(t *testing.T) {
	s := NewAFS()

	_, err := s.Get(context.Background(), "mem://localhost/devdocs/missing.md")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	var serr *Error
	if !errors.As(err, &serr) {
		t.Fatalf("err %v should wrap *storage.Error", err)
	}
	if serr.Locator != "mem://localhost/devdocs/missing.md" {
		t.Errorf("Locator = %q", serr.Locator)
	}
}

func TestAFS_DeleteMissingIsNoop(t *testing.T) {
	s := NewAFS()
	if err := s.Delete(context.Background(), "mem://localhost/devdocs/nothing-here.pdf"); err != nil {
		t.Fatalf("Delete of missing object should be a no-op, got %v", err)
	}
}
