package kv

import (
	"context"
	"sync"
)

// Locker serializes read-modify-write cycles per collection key within one process.
type Locker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLocker constructs a Locker.
func NewLocker() *Locker {
	return &Locker{slots: make(map[string]chan struct{})}
}

// Acquire blocks until the key is free or ctx is done.
func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[key] = slot
	}
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-slot }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
