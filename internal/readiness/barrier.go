// Package readiness provides the barrier that gates the application's single
// "ready" signal on several independent startup phases.
package readiness

import (
	"context"
	"sync"
)

// Permit identifies one startup phase. Each permit counts once, however often it arrives.
type Permit uint8

const (
	// PermitInit arrives once middleware is installed and routes are loaded.
	PermitInit Permit = 1 << iota
	// PermitListening arrives once the socket is bound, or immediately when
	// no server is started.
	PermitListening
)

// Barrier completes exactly once, when every required permit has arrived.
// The value passed with the completing arrival is handed to every waiter.
type Barrier[T any] struct {
	mu       sync.Mutex
	required Permit
	arrived  Permit
	value    T
	err      error
	done     chan struct{}
	closed   bool
}

// NewBarrier creates a barrier that needs all of the given permits.
func NewBarrier[T any](permits ...Permit) *Barrier[T] {
	var required Permit
	for _, p := range permits {
		required |= p
	}
	return &Barrier[T]{required: required, done: make(chan struct{})}
}

// Arrive records permit along with value; the value of the completing call is
// the one handed to waiters. It reports whether this call completed the barrier.
func (b *Barrier[T]) Arrive(permit Permit, value T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}
	b.arrived |= permit & b.required
	b.value = value
	if b.arrived != b.required {
		return false
	}
	b.closed = true
	close(b.done)
	return true
}

// Fail completes the barrier with err. It has no effect once the barrier is done.
func (b *Barrier[T]) Fail(err error) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}
	b.err = err
	b.closed = true
	close(b.done)
	return true
}

// Has reports whether permit has arrived.
func (b *Barrier[T]) Has(permit Permit) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.arrived&permit == permit
}

// Done is closed when the barrier completes or fails.
func (b *Barrier[T]) Done() <-chan struct{} {
	return b.done
}

// Wait blocks until the barrier completes, fails, or ctx is done.
func (b *Barrier[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-b.done:
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.value, b.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
