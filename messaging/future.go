package messaging

import (
	"context"
	"sync"
)

// Future is a single-assignment result cell. It settles exactly once, with either
// a value or an error; later settlement attempts are ignored.
type Future[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

// ReplyFuture carries one decoded query response.
type ReplyFuture = Future[map[string]interface{}]

// CollectionFuture carries the aggregated outcome of a parallel dispatch.
type CollectionFuture = Future[*ResponseCollection]

// NewFuture creates an unsettled future
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// NewReplyFuture creates an unsettled reply future
func NewReplyFuture() *ReplyFuture {
	return NewFuture[map[string]interface{}]()
}

// Resolve settles the future with a value. No-op if already settled.
func (f *Future[T]) Resolve(value T) {
	f.once.Do(func() {
		f.value = value
		close(f.done)
	})
}

// Reject settles the future with an error. No-op if already settled.
func (f *Future[T]) Reject(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done returns a channel that is closed once the future settles
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Settled reports whether the future has settled
func (f *Future[T]) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Await blocks until the future settles or the context ends. A context error does
// not settle the future; the dispatch keeps running and can still settle it.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
