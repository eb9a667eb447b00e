// Package debounce provides a keyed delay-then-evaluate primitive.
package debounce

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrSuperseded = errors.New("superseded by a newer call")

// Debouncer lets only the latest caller per key proceed after a quiet window.
type Debouncer[K comparable] struct {
	window time.Duration

	mu      sync.Mutex
	pending map[K]chan struct{}
}

func New[K comparable](window time.Duration) *Debouncer[K] {
	return &Debouncer[K]{
		window:  window,
		pending: make(map[K]chan struct{}),
	}
}

// Wait blocks for the quiet window.
//
// A pending Wait for the same key returns ErrSuperseded as soon as a newer
// Wait starts. Nil is returned only to the caller that stayed the latest for
// the whole window.
func (d *Debouncer[K]) Wait(ctx context.Context, key K) error {
	superseded := d.replace(key)
	defer d.release(key, superseded)

	timer := time.NewTimer(d.window)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-superseded:
		return ErrSuperseded
	case <-timer.C:
		return nil
	}
}

func (d *Debouncer[K]) replace(key K) chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	if prev, ok := d.pending[key]; ok {
		close(prev)
	}
	ch := make(chan struct{})
	d.pending[key] = ch
	return ch
}

func (d *Debouncer[K]) release(key K, ch chan struct{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending[key] == ch {
		delete(d.pending, key)
	}
}

// Pending returns the number of keys with a waiting caller.
func (d *Debouncer[K]) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
