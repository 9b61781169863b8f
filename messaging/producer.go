package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/glimte/dispatch-go/contracts"
)

var _ Producer = (*BasicProducer)(nil)

// BasicProducer publishes commands and events fire-and-forget: one envelope, one
// exchange, the message name as routing key. It cannot handle messages requiring
// future responses; those belong to the QueryProducer.
type BasicProducer struct {
	transport TransportPublisher
	builder   *EnvelopeBuilder
	exchange  string
	logger    *slog.Logger
}

// BasicProducerOption configures the BasicProducer
type BasicProducerOption func(*BasicProducer)

// WithProducerExchange sets the target exchange
func WithProducerExchange(exchange string) BasicProducerOption {
	return func(p *BasicProducer) {
		p.exchange = exchange
	}
}

// WithProducerLogger sets the logger
func WithProducerLogger(logger *slog.Logger) BasicProducerOption {
	return func(p *BasicProducer) {
		p.logger = logger
	}
}

// NewBasicProducer creates a new fire-and-forget producer
func NewBasicProducer(transport TransportPublisher, builder *EnvelopeBuilder, options ...BasicProducerOption) *BasicProducer {
	p := &BasicProducer{
		transport: transport,
		builder:   builder,
		exchange:  "dispatch.messages",
		logger:    slog.Default(),
	}

	for _, opt := range options {
		opt(p)
	}

	return p
}

// Produce publishes a message. The reply future must be nil; success means the
// envelope was handed to the transport capability without error.
func (p *BasicProducer) Produce(ctx context.Context, msg contracts.Message, reply *ReplyFuture) error {
	if msg == nil {
		return fmt.Errorf("%w: message cannot be nil", contracts.ErrInvalidMessageData)
	}
	if reply != nil {
		return fmt.Errorf("%w: basic producer cannot handle messages requiring future responses", contracts.ErrUnsupportedOperation)
	}

	envelope, err := p.builder.Build(msg)
	if err != nil {
		return err
	}

	if err := p.transport.Publish(ctx, p.exchange, msg.GetName(), envelope); err != nil {
		p.logger.Error("failed to publish message",
			"messageId", msg.GetID(),
			"messageName", msg.GetName(),
			"exchange", p.exchange,
			"error", err,
		)
		return fmt.Errorf("failed to publish message %s: %w", msg.GetID(), err)
	}

	p.logger.Debug("message published",
		"messageId", msg.GetID(),
		"messageName", msg.GetName(),
		"exchange", p.exchange,
	)

	return nil
}
