package object

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound is returned by Open when no object exists under the key.
	ErrNotFound = errors.New("object not found")
	// ErrInvalidKey is returned for keys that escape the store namespace.
	ErrInvalidKey = errors.New("invalid storage key")
)

// ObjectStore defines the contract for saving, reading and removing binary objects by key.
// Objects are never mutated in place: Put under an existing key replaces the object.
// Delete and DeleteMany treat missing objects as already removed.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	DeleteMany(ctx context.Context, keys []string) error
}
