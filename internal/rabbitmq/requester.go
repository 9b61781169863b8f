package rabbitmq

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/glimte/dispatch-go/contracts"
	"github.com/glimte/dispatch-go/messaging"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// replyToQueue is RabbitMQ's pseudo-queue for direct reply-to RPC. Consuming from
// it requires auto-ack and no explicit declaration.
const replyToQueue = "amq.rabbitmq.reply-to"

// Requester implements the request/response capability over RabbitMQ direct
// reply-to. Each request publishes with a fresh correlation ID and a reply-to
// address; the single consumer on the reply pseudo-queue routes responses back to
// the pending request by correlation ID.
type Requester struct {
	ch      *amqp.Channel
	pending map[string]chan messaging.RequestResult
	mu      sync.Mutex
	logger  *slog.Logger
	done    chan struct{}
	closed  bool
}

// RequesterOption configures the requester
type RequesterOption func(*Requester)

// WithRequesterLogger sets the logger
func WithRequesterLogger(logger *slog.Logger) RequesterOption {
	return func(r *Requester) {
		r.logger = logger
	}
}

// NewRequester creates a requester on its own channel and starts consuming
// replies
func NewRequester(manager *ConnectionManager, options ...RequesterOption) (*Requester, error) {
	ch, err := manager.Channel()
	if err != nil {
		return nil, err
	}

	r := &Requester{
		ch:      ch,
		pending: make(map[string]chan messaging.RequestResult),
		logger:  slog.Default(),
		done:    make(chan struct{}),
	}

	for _, opt := range options {
		opt(r)
	}

	deliveries, err := ch.Consume(replyToQueue, "", true, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, &ConnectionError{Op: "consume reply queue", Err: err}
	}

	go r.consumeReplies(deliveries)

	return r, nil
}

// Request publishes a request-style message and returns a channel that receives
// exactly one result. The caller owns the timeout through ctx; when ctx ends
// before the reply arrives, the result is a transport failure.
func (r *Requester) Request(ctx context.Context, exchange, routingKey string, envelope *contracts.Envelope) <-chan messaging.RequestResult {
	results := make(chan messaging.RequestResult, 1)
	correlationID := uuid.New().String()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		results <- messaging.RequestResult{Err: &contracts.TransportError{Op: "request", RoutingKey: routingKey, Err: ErrRequesterClosed}}
		return results
	}
	r.pending[correlationID] = results
	r.mu.Unlock()

	body, err := json.Marshal(envelope.Payload)
	if err != nil {
		r.takePending(correlationID)
		results <- messaging.RequestResult{Err: &contracts.TransportError{Op: "request", RoutingKey: routingKey, Err: err}}
		return results
	}

	msg := amqp.Publishing{
		ContentType:   "application/json",
		Body:          body,
		AppId:         envelope.AppID,
		Timestamp:     time.Unix(envelope.Timestamp, 0).UTC(),
		Type:          envelope.Type,
		CorrelationId: correlationID,
		ReplyTo:       replyToQueue,
	}
	if len(envelope.Headers) > 0 {
		msg.Headers = amqp.Table(envelope.Headers)
	}

	if err := r.ch.PublishWithContext(ctx, exchange, routingKey, false, false, msg); err != nil {
		r.takePending(correlationID)
		results <- messaging.RequestResult{Err: &contracts.TransportError{Op: "request", RoutingKey: routingKey, Err: err}}
		return results
	}

	go r.expire(ctx, correlationID, routingKey)

	return results
}

// expire fails the pending request when its context ends before the reply arrives
func (r *Requester) expire(ctx context.Context, correlationID, routingKey string) {
	select {
	case <-ctx.Done():
		if ch := r.takePending(correlationID); ch != nil {
			ch <- messaging.RequestResult{Err: &contracts.TransportError{Op: "request", RoutingKey: routingKey, Err: ctx.Err()}}
		}
	case <-r.done:
	}
}

// consumeReplies routes incoming replies to their pending requests
func (r *Requester) consumeReplies(deliveries <-chan amqp.Delivery) {
	for delivery := range deliveries {
		results := r.takePending(delivery.CorrelationId)
		if results == nil {
			r.logger.Debug("reply for unknown correlation id", "correlationId", delivery.CorrelationId)
			continue
		}

		var payload map[string]interface{}
		if err := json.Unmarshal(delivery.Body, &payload); err != nil {
			results <- messaging.RequestResult{Err: &contracts.TransportError{Op: "decode reply", Err: err}}
			continue
		}

		results <- messaging.RequestResult{Payload: payload}
	}

	// Delivery channel closed underneath us: nothing pending can settle anymore.
	r.failAll(ErrRequesterClosed)
}

// takePending removes and returns the pending slot for a correlation ID
func (r *Requester) takePending(correlationID string) chan messaging.RequestResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	results, ok := r.pending[correlationID]
	if !ok {
		return nil
	}
	delete(r.pending, correlationID)
	return results
}

func (r *Requester) failAll(cause error) {
	r.mu.Lock()
	pending := r.pending
	r.pending = make(map[string]chan messaging.RequestResult)
	r.mu.Unlock()

	for _, results := range pending {
		results <- messaging.RequestResult{Err: &contracts.TransportError{Op: "request", Err: cause}}
	}
}

// Close stops the requester and fails all outstanding requests
func (r *Requester) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	close(r.done)
	err := r.ch.Close()
	r.failAll(ErrRequesterClosed)
	return err
}
