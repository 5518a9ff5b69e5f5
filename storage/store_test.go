package storage

import (
	"errors"
	"strings"
	"testing"
)

func TestStorageErrorWrapsCause(t *testing.T) {
	cause := errors.New("duplicate key value violates unique constraint")
	err := &StorageError{Op: "upsert authorship", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("StorageError must unwrap to its cause")
	}
	msg := err.Error()
	if !strings.Contains(msg, "upsert authorship") || !strings.Contains(msg, "duplicate key") {
		t.Errorf("error message must carry operation and cause: %q", msg)
	}

	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Error("errors.As must match *StorageError")
	}
}
