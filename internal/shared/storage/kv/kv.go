// Package kv stores whole named collections (id -> entity maps) as single JSON values in a
// remote key-value backend. The backend only offers get/set of an entire value, so every
// mutation is a read-modify-write of the full collection.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"readify-backend/internal/shared/fault"
	"readify-backend/internal/shared/metrics"
)

var (
	// ErrKeyNotFound is returned by Backend.Get when the key holds no value.
	ErrKeyNotFound = errors.New("kv: key not found")
	// ErrConflict is returned when an optimistic update kept losing to concurrent writers.
	ErrConflict = errors.New("kv: concurrent modification")
)

// Backend is the wire contract of the key-value service: GET key -> value | absent, SET key value.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// UpdateFunc receives the current raw value and returns the next value and whether to write it.
type UpdateFunc func(current []byte, found bool) (next []byte, write bool, err error)

// Transactor is implemented by backends with a native conditional-write primitive.
// Update may invoke fn more than once when a concurrent writer wins the race.
type Transactor interface {
	Update(ctx context.Context, key string, fn UpdateFunc) error
}

// Collection is a typed view over one collection key.
type Collection[T any] struct {
	backend Backend
	key     string
	locker  *Locker
}

// NewCollection binds a collection key to a backend. A nil locker disables in-process
// serialization of Mutate calls (last writer wins).
func NewCollection[T any](backend Backend, key string, locker *Locker) *Collection[T] {
	return &Collection[T]{backend: backend, key: key, locker: locker}
}

// Key returns the collection key.
func (c *Collection[T]) Key() string {
	return c.key
}

// Load fetches the full collection. An absent key yields an empty, non-nil map.
func (c *Collection[T]) Load(ctx context.Context) (map[string]T, error) {
	start := time.Now()
	raw, err := c.backend.Get(ctx, c.key)
	found := true
	if errors.Is(err, ErrKeyNotFound) {
		found, err = false, nil
	}
	metrics.ObserveKV("get", c.key, start, err)
	if err != nil {
		return nil, fault.Upstream(fault.DependencyKV, "get", c.key, err)
	}
	return decode[T](c.key, raw, found)
}

// Save overwrites the full collection.
func (c *Collection[T]) Save(ctx context.Context, items map[string]T) error {
	raw, err := encode(c.key, items)
	if err != nil {
		return err
	}
	start := time.Now()
	err = c.backend.Set(ctx, c.key, raw)
	metrics.ObserveKV("set", c.key, start, err)
	return fault.Upstream(fault.DependencyKV, "set", c.key, err)
}

// Mutate runs a read-modify-write cycle. fn edits the map in place and reports whether it
// changed anything; unchanged collections are not written back. Errors returned by fn are
// passed through unwrapped. fn may run more than once on backends implementing Transactor,
// so any side effects it performs must be idempotent.
func (c *Collection[T]) Mutate(ctx context.Context, fn func(items map[string]T) (bool, error)) error {
	if c.locker != nil {
		release, err := c.locker.Acquire(ctx, c.key)
		if err != nil {
			return err
		}
		defer release()
	}

	tx, ok := c.backend.(Transactor)
	if !ok {
		items, err := c.Load(ctx)
		if err != nil {
			return err
		}
		changed, err := fn(items)
		if err != nil || !changed {
			return err
		}
		return c.Save(ctx, items)
	}

	var fnErr error
	start := time.Now()
	err := tx.Update(ctx, c.key, func(current []byte, found bool) ([]byte, bool, error) {
		items, err := decode[T](c.key, current, found)
		if err != nil {
			fnErr = err
			return nil, false, err
		}
		changed, err := fn(items)
		if err != nil {
			fnErr = err
			return nil, false, err
		}
		if !changed {
			return nil, false, nil
		}
		next, err := encode(c.key, items)
		if err != nil {
			fnErr = err
			return nil, false, err
		}
		return next, true, nil
	})
	if fnErr != nil {
		return fnErr
	}
	metrics.ObserveKV("update", c.key, start, err)
	if errors.Is(err, ErrConflict) {
		return err
	}
	return fault.Upstream(fault.DependencyKV, "update", c.key, err)
}

func decode[T any](key string, raw []byte, found bool) (map[string]T, error) {
	items := make(map[string]T)
	if !found || len(raw) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("kv decode collection %s: %w", key, err)
	}
	if items == nil {
		items = make(map[string]T)
	}
	return items, nil
}

func encode[T any](key string, items map[string]T) ([]byte, error) {
	if items == nil {
		items = map[string]T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("kv encode collection %s: %w", key, err)
	}
	return raw, nil
}
