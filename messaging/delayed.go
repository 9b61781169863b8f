package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/glimte/dispatch-go/contracts"
)

// DelayHeader is the transport header consumed by delay-capable exchanges.
// RabbitMQ's delayed message plugin reads it as milliseconds.
const DelayHeader = "x-delay"

var _ Producer = (*DelayedProducer)(nil)

// DelayedProducer publishes messages whose delivery is deferred until their
// execution time. The delay is computed at publish time and attached as a header;
// an execution time already in the past clamps the delay to zero and the message
// goes out immediately.
//
// The producer does not verify that the target exchange is delay-capable. On a
// plain exchange the header is ignored by the broker and the delay silently does
// not happen; declaring the exchange through the transport's topology support
// avoids that misconfiguration.
type DelayedProducer struct {
	transport TransportPublisher
	builder   *EnvelopeBuilder
	exchange  string
	logger    *slog.Logger
}

// DelayedProducerOption configures the DelayedProducer
type DelayedProducerOption func(*DelayedProducer)

// WithDelayedExchange sets the delay-capable exchange
func WithDelayedExchange(exchange string) DelayedProducerOption {
	return func(p *DelayedProducer) {
		p.exchange = exchange
	}
}

// WithDelayedLogger sets the logger
func WithDelayedLogger(logger *slog.Logger) DelayedProducerOption {
	return func(p *DelayedProducer) {
		p.logger = logger
	}
}

// NewDelayedProducer creates a producer targeting a delay-capable exchange
func NewDelayedProducer(transport TransportPublisher, builder *EnvelopeBuilder, options ...DelayedProducerOption) *DelayedProducer {
	p := &DelayedProducer{
		transport: transport,
		builder:   builder,
		exchange:  "dispatch.delayed",
		logger:    slog.Default(),
	}

	for _, opt := range options {
		opt(p)
	}

	return p
}

// Produce publishes a delayed message. The reply future must be nil, and the
// message must expose an execution time.
func (p *DelayedProducer) Produce(ctx context.Context, msg contracts.Message, reply *ReplyFuture) error {
	if msg == nil {
		return fmt.Errorf("%w: message cannot be nil", contracts.ErrInvalidMessageData)
	}
	if reply != nil {
		return fmt.Errorf("%w: delayed producer cannot handle messages requiring future responses", contracts.ErrUnsupportedOperation)
	}

	delayed, ok := msg.(contracts.DelayedMessage)
	if !ok {
		return fmt.Errorf("%w: delayed producer requires a message with an execution time", contracts.ErrUnsupportedOperation)
	}

	envelope, err := p.builder.Build(msg)
	if err != nil {
		return err
	}

	delay := time.Until(delayed.GetExecuteAt())
	if delay < 0 {
		p.logger.Debug("execution time already passed, publishing immediately",
			"messageId", msg.GetID(),
			"messageName", msg.GetName(),
			"executeAt", delayed.GetExecuteAt(),
		)
		delay = 0
	}

	if envelope.Headers == nil {
		envelope.Headers = make(map[string]interface{})
	}
	envelope.Headers[DelayHeader] = delay.Milliseconds()

	if err := p.transport.Publish(ctx, p.exchange, msg.GetName(), envelope); err != nil {
		p.logger.Error("failed to publish delayed message",
			"messageId", msg.GetID(),
			"messageName", msg.GetName(),
			"exchange", p.exchange,
			"delayMs", delay.Milliseconds(),
			"error", err,
		)
		return fmt.Errorf("failed to publish message %s: %w", msg.GetID(), err)
	}

	p.logger.Debug("delayed message published",
		"messageId", msg.GetID(),
		"messageName", msg.GetName(),
		"exchange", p.exchange,
		"delayMs", delay.Milliseconds(),
	)

	return nil
}
