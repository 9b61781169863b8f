package messaging

import (
	"context"

	"github.com/glimte/dispatch-go/contracts"
)

// TransportPublisher is the broker publish capability consumed by the
// fire-and-forget producers. Implementations must be safe for concurrent use.
type TransportPublisher interface {
	// Publish sends an envelope through the transport
	Publish(ctx context.Context, exchange, routingKey string, envelope *contracts.Envelope) error

	// Close closes the publisher
	Close() error
}

// RequestResult is the settled outcome of one request/response exchange.
type RequestResult struct {
	Payload map[string]interface{}
	Err     error
}

// TransportRequester is the request/response capability consumed by the query
// producers. Request publishes the envelope and returns a channel that receives
// exactly one result, whether the remote answered, the publish failed, or the
// context ended first.
type TransportRequester interface {
	// Request issues a request-style publish and returns its pending result
	Request(ctx context.Context, exchange, routingKey string, envelope *contracts.Envelope) <-chan RequestResult

	// Close closes the requester
	Close() error
}

// MessageConverter produces the flat payload mapping for a message.
type MessageConverter interface {
	ToMap(msg contracts.Message) (map[string]interface{}, error)
}

// Producer publishes messages. Fire-and-forget producers reject a non-nil reply
// future; query producers require one.
type Producer interface {
	Produce(ctx context.Context, msg contracts.Message, reply *ReplyFuture) error
}
