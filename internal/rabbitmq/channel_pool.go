package rabbitmq

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ChannelPool manages a bounded pool of AMQP channels shared by concurrent
// publishes.
type ChannelPool struct {
	manager  *ConnectionManager
	channels chan *amqp.Channel
	maxSize  int
	mu       sync.Mutex
	closed   bool
}

// ChannelPoolOption configures the channel pool
type ChannelPoolOption func(*ChannelPool)

// WithMaxChannels sets the maximum pool size
func WithMaxChannels(size int) ChannelPoolOption {
	return func(cp *ChannelPool) {
		cp.maxSize = size
	}
}

// NewChannelPool creates a new channel pool
func NewChannelPool(manager *ConnectionManager, options ...ChannelPoolOption) (*ChannelPool, error) {
	if manager == nil {
		return nil, ErrInvalidConfiguration
	}

	pool := &ChannelPool{
		manager: manager,
		maxSize: 10,
	}

	for _, opt := range options {
		opt(pool)
	}

	if pool.maxSize < 1 {
		return nil, fmt.Errorf("%w: max size must be at least 1", ErrInvalidConfiguration)
	}

	pool.channels = make(chan *amqp.Channel, pool.maxSize)
	return pool, nil
}

// Get retrieves a channel from the pool, opening a new one when none is idle
func (cp *ChannelPool) Get(ctx context.Context) (*amqp.Channel, error) {
	cp.mu.Lock()
	if cp.closed {
		cp.mu.Unlock()
		return nil, ErrChannelPoolClosed
	}
	cp.mu.Unlock()

	select {
	case ch := <-cp.channels:
		if ch.IsClosed() {
			return cp.manager.Channel()
		}
		return ch, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		return cp.manager.Channel()
	}
}

// Put returns a channel to the pool, closing it when the pool is full or closed.
// The send happens under the mutex so it cannot race a concurrent Close.
func (cp *ChannelPool) Put(ch *amqp.Channel) {
	if ch == nil || ch.IsClosed() {
		return
	}

	cp.mu.Lock()
	if cp.closed {
		cp.mu.Unlock()
		ch.Close()
		return
	}

	select {
	case cp.channels <- ch:
		cp.mu.Unlock()
	default:
		cp.mu.Unlock()
		ch.Close()
	}
}

// Execute runs fn with a pooled channel and returns it afterwards
func (cp *ChannelPool) Execute(ctx context.Context, fn func(ch *amqp.Channel) error) error {
	ch, err := cp.Get(ctx)
	if err != nil {
		return err
	}
	defer cp.Put(ch)

	return fn(ch)
}

// Close drains and closes all pooled channels. The pool channel itself is left
// open; once closed is set no Put can send on it, so draining is complete.
func (cp *ChannelPool) Close() error {
	cp.mu.Lock()
	if cp.closed {
		cp.mu.Unlock()
		return nil
	}
	cp.closed = true
	cp.mu.Unlock()

	for {
		select {
		case ch := <-cp.channels:
			ch.Close()
		default:
			return nil
		}
	}
}
