package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dogmatiq/linger"
	"github.com/glimte/dispatch-go/contracts"
)

// DefaultQueryTimeout bounds an outstanding query when the caller does not
// configure one. No future may pend indefinitely.
const DefaultQueryTimeout = 30 * time.Second

var _ Producer = (*QueryProducer)(nil)

// QueryProducer publishes queries and bridges the transport response to a
// caller-owned future: transport success resolves it with the decoded response,
// transport failure rejects it with the underlying error unmodified.
type QueryProducer struct {
	requester TransportRequester
	builder   *EnvelopeBuilder
	exchange  string
	timeout   time.Duration
	logger    *slog.Logger
}

// QueryProducerOption configures the QueryProducer
type QueryProducerOption func(*QueryProducer)

// WithQueryExchange sets the target exchange
func WithQueryExchange(exchange string) QueryProducerOption {
	return func(p *QueryProducer) {
		p.exchange = exchange
	}
}

// WithQueryTimeout bounds how long a reply future may stay pending
func WithQueryTimeout(timeout time.Duration) QueryProducerOption {
	return func(p *QueryProducer) {
		p.timeout = timeout
	}
}

// WithQueryLogger sets the logger
func WithQueryLogger(logger *slog.Logger) QueryProducerOption {
	return func(p *QueryProducer) {
		p.logger = logger
	}
}

// NewQueryProducer creates a new query producer
func NewQueryProducer(requester TransportRequester, builder *EnvelopeBuilder, options ...QueryProducerOption) *QueryProducer {
	p := &QueryProducer{
		requester: requester,
		builder:   builder,
		exchange:  "dispatch.queries",
		logger:    slog.Default(),
	}

	for _, opt := range options {
		opt(p)
	}

	return p
}

// Produce publishes a query. The reply future is required; envelope construction
// failures are returned synchronously before any transport call, everything after
// that settles the future.
func (p *QueryProducer) Produce(ctx context.Context, msg contracts.Message, reply *ReplyFuture) error {
	if msg == nil {
		return fmt.Errorf("%w: message cannot be nil", contracts.ErrInvalidMessageData)
	}
	if reply == nil {
		return fmt.Errorf("%w: query producer requires a future for the response", contracts.ErrUnsupportedOperation)
	}

	envelope, err := p.builder.Build(msg)
	if err != nil {
		return err
	}

	// The timeout bounds the transport request itself, not just the local wait,
	// so an unanswered query releases its broker-side state when it expires.
	tctx, cancel := linger.ContextWithTimeout(ctx, p.timeout, DefaultQueryTimeout)

	results := p.requester.Request(tctx, p.exchange, msg.GetName(), envelope)
	go p.bridge(tctx, cancel, msg.GetName(), results, reply)

	p.logger.Debug("query published",
		"messageId", msg.GetID(),
		"messageName", msg.GetName(),
		"exchange", p.exchange,
	)

	return nil
}

// bridge settles the caller future from the transport result, or from the timeout
// when the transport never answers.
func (p *QueryProducer) bridge(ctx context.Context, cancel context.CancelFunc, routingKey string, results <-chan RequestResult, reply *ReplyFuture) {
	defer cancel()

	select {
	case res := <-results:
		if res.Err != nil {
			reply.Reject(res.Err)
			return
		}
		reply.Resolve(res.Payload)
	case <-ctx.Done():
		p.logger.Debug("query timed out", "routingKey", routingKey)
		reply.Reject(&contracts.TransportError{Op: "request", RoutingKey: routingKey, Err: ctx.Err()})
	}
}
