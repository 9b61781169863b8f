package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dogmatiq/linger"
	"github.com/glimte/dispatch-go/contracts"
	"golang.org/x/sync/errgroup"
)

// QueryResult is one slot's settled outcome inside a response collection.
type QueryResult struct {
	Payload map[string]interface{}
	Err     error
}

// Succeeded reports whether the slot settled with a response
func (r QueryResult) Succeeded() bool {
	return r.Err == nil
}

// ResponseCollection holds exactly one settled result per constituent of a
// parallel query, indexed in submission order. A collection is only handed to the
// caller once every slot has settled.
type ResponseCollection struct {
	results []QueryResult
}

// Len returns the number of slots
func (c *ResponseCollection) Len() int {
	return len(c.results)
}

// At returns the result in slot i
func (c *ResponseCollection) At(i int) QueryResult {
	return c.results[i]
}

// Results returns a copy of all slots in submission order
func (c *ResponseCollection) Results() []QueryResult {
	out := make([]QueryResult, len(c.results))
	copy(out, c.results)
	return out
}

// SucceededCount returns the number of successful slots
func (c *ResponseCollection) SucceededCount() int {
	n := 0
	for _, r := range c.results {
		if r.Succeeded() {
			n++
		}
	}
	return n
}

// FailedCount returns the number of failed slots
func (c *ResponseCollection) FailedCount() int {
	return len(c.results) - c.SucceededCount()
}

// FirstError returns the error of the lowest-indexed failed slot, or nil
func (c *ResponseCollection) FirstError() error {
	for _, r := range c.results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

// ParallelQueryCoordinator decomposes a parallel query into its constituents,
// dispatches them concurrently through the request/response capability, and
// aggregates every outcome into one response collection. A constituent failure is
// recorded in its slot, never escalated; only decomposition-time failures reject
// the aggregate, and they do so before any transport call.
type ParallelQueryCoordinator struct {
	requester   TransportRequester
	builder     *EnvelopeBuilder
	exchange    string
	slotTimeout time.Duration
	logger      *slog.Logger
}

// CoordinatorOption configures the ParallelQueryCoordinator
type CoordinatorOption func(*ParallelQueryCoordinator)

// WithCoordinatorExchange sets the target exchange
func WithCoordinatorExchange(exchange string) CoordinatorOption {
	return func(c *ParallelQueryCoordinator) {
		c.exchange = exchange
	}
}

// WithSlotTimeout bounds each constituent query so a single non-responding remote
// cannot hold the aggregate open
func WithSlotTimeout(timeout time.Duration) CoordinatorOption {
	return func(c *ParallelQueryCoordinator) {
		c.slotTimeout = timeout
	}
}

// WithCoordinatorLogger sets the logger
func WithCoordinatorLogger(logger *slog.Logger) CoordinatorOption {
	return func(c *ParallelQueryCoordinator) {
		c.logger = logger
	}
}

// NewParallelQueryCoordinator creates a new coordinator
func NewParallelQueryCoordinator(requester TransportRequester, builder *EnvelopeBuilder, options ...CoordinatorOption) *ParallelQueryCoordinator {
	c := &ParallelQueryCoordinator{
		requester: requester,
		builder:   builder,
		exchange:  "dispatch.queries",
		logger:    slog.Default(),
	}

	for _, opt := range options {
		opt(c)
	}

	return c
}

// Dispatch fans the parallel query out and returns the aggregate future
// immediately. The future resolves with the assembled collection once all slots
// have settled, or rejects if decomposition fails.
func (c *ParallelQueryCoordinator) Dispatch(ctx context.Context, msg contracts.ParallelMessage) *CollectionFuture {
	aggregate := NewFuture[*ResponseCollection]()

	if msg == nil {
		aggregate.Reject(fmt.Errorf("%w: message cannot be nil", contracts.ErrInvalidMessageData))
		return aggregate
	}

	constituents := msg.GetMessages()
	if len(constituents) == 0 {
		aggregate.Reject(fmt.Errorf("%w: parallel message %s has no constituent messages", contracts.ErrInvalidMessageData, msg.GetName()))
		return aggregate
	}

	// Build every envelope before the first dispatch so a malformed constituent
	// rejects the aggregate without any transport calls.
	envelopes := make([]*contracts.Envelope, len(constituents))
	for i, constituent := range constituents {
		if constituent == nil {
			aggregate.Reject(fmt.Errorf("%w: parallel message %s has a nil constituent at index %d", contracts.ErrInvalidMessageData, msg.GetName(), i))
			return aggregate
		}

		envelope, err := c.builder.Build(constituent)
		if err != nil {
			aggregate.Reject(err)
			return aggregate
		}
		envelopes[i] = envelope
	}

	// Each slot is written by exactly one goroutine, so the only synchronization
	// point is the join itself.
	results := make([]QueryResult, len(constituents))
	var group errgroup.Group
	for i, constituent := range constituents {
		i, constituent := i, constituent
		group.Go(func() error {
			results[i] = c.dispatchSlot(ctx, constituent.GetName(), envelopes[i])
			return nil
		})
	}

	go func() {
		_ = group.Wait()
		collection := &ResponseCollection{results: results}
		c.logger.Debug("parallel query settled",
			"messageId", msg.GetID(),
			"messageName", msg.GetName(),
			"slots", collection.Len(),
			"failed", collection.FailedCount(),
		)
		aggregate.Resolve(collection)
	}()

	return aggregate
}

// dispatchSlot issues one constituent query and waits for it to settle. A slot
// whose remote never answers settles as a failure when its timeout expires.
func (c *ParallelQueryCoordinator) dispatchSlot(ctx context.Context, routingKey string, envelope *contracts.Envelope) QueryResult {
	sctx, cancel := linger.ContextWithTimeout(ctx, c.slotTimeout, DefaultQueryTimeout)
	defer cancel()

	results := c.requester.Request(sctx, c.exchange, routingKey, envelope)

	select {
	case res := <-results:
		return QueryResult{Payload: res.Payload, Err: res.Err}
	case <-sctx.Done():
		return QueryResult{Err: &contracts.TransportError{Op: "request", RoutingKey: routingKey, Err: sctx.Err()}}
	}
}
