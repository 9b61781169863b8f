package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/glimte/dispatch-go/contracts"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends envelopes to RabbitMQ. It implements the transport publish
// capability consumed by the fire-and-forget producers and is safe for concurrent
// use.
type Publisher struct {
	pool           *ChannelPool
	publishTimeout time.Duration
	logger         *slog.Logger
	mu             sync.Mutex
	closed         bool
}

// PublisherOption configures the publisher
type PublisherOption func(*Publisher)

// WithPublishTimeout sets the publish timeout applied when the context has no
// deadline
func WithPublishTimeout(timeout time.Duration) PublisherOption {
	return func(p *Publisher) {
		p.publishTimeout = timeout
	}
}

// WithPublisherLogger sets the logger
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher creates a new publisher
func NewPublisher(pool *ChannelPool, options ...PublisherOption) *Publisher {
	p := &Publisher{
		pool:           pool,
		publishTimeout: 10 * time.Second,
		logger:         slog.Default(),
	}

	for _, opt := range options {
		opt(p)
	}

	return p
}

// Publish sends an envelope to the given exchange with the given routing key
func (p *Publisher) Publish(ctx context.Context, exchange, routingKey string, envelope *contracts.Envelope) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return &contracts.TransportError{Op: "publish", RoutingKey: routingKey, Err: ErrPublisherClosed}
	}
	p.mu.Unlock()

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.publishTimeout)
		defer cancel()
	}

	msg, err := toPublishing(envelope)
	if err != nil {
		return err
	}

	err = p.pool.Execute(ctx, func(ch *amqp.Channel) error {
		return ch.PublishWithContext(ctx, exchange, routingKey, false, false, msg)
	})
	if err != nil {
		return &contracts.TransportError{
			Op:         "publish",
			RoutingKey: routingKey,
			Err: &PublishError{
				Exchange:   exchange,
				RoutingKey: routingKey,
				Err:        err,
				Timestamp:  time.Now(),
			},
		}
	}

	p.logger.Debug("envelope published",
		"exchange", exchange,
		"routingKey", routingKey,
		"type", envelope.Type,
	)

	return nil
}

// Close marks the publisher closed. The channel pool is owned by the caller.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// toPublishing maps an envelope onto the AMQP message properties: app_id,
// timestamp (epoch seconds) and type travel as attributes, the payload as a JSON
// body, and the headers as the header table.
func toPublishing(envelope *contracts.Envelope) (amqp.Publishing, error) {
	body, err := json.Marshal(envelope.Payload)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("%w: failed to encode payload: %v", contracts.ErrInvalidMessageData, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		AppId:        envelope.AppID,
		Timestamp:    time.Unix(envelope.Timestamp, 0).UTC(),
		Type:         envelope.Type,
		DeliveryMode: amqp.Persistent,
	}

	if len(envelope.Headers) > 0 {
		msg.Headers = amqp.Table(envelope.Headers)
	}

	return msg, nil
}
