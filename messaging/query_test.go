package messaging

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glimte/dispatch-go/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRequester records every request and settles it through respond, or leaves
// it pending when respond returns nil.
type fakeRequester struct {
	mu       sync.Mutex
	keys     []string
	ctxs     []context.Context
	channels []chan RequestResult
	respond  func(routingKey string) *RequestResult
}

func (f *fakeRequester) Request(ctx context.Context, exchange, routingKey string, envelope *contracts.Envelope) <-chan RequestResult {
	ch := make(chan RequestResult, 1)

	f.mu.Lock()
	f.keys = append(f.keys, routingKey)
	f.ctxs = append(f.ctxs, ctx)
	f.channels = append(f.channels, ch)
	f.mu.Unlock()

	if f.respond != nil {
		if res := f.respond(routingKey); res != nil {
			ch <- *res
		}
	}
	return ch
}

func (f *fakeRequester) Close() error {
	return nil
}

func (f *fakeRequester) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.keys)
}

func (f *fakeRequester) channelFor(routingKey string) chan RequestResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, key := range f.keys {
		if key == routingKey {
			return f.channels[i]
		}
	}
	return nil
}

func (f *fakeRequester) contextFor(routingKey string) context.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, key := range f.keys {
		if key == routingKey {
			return f.ctxs[i]
		}
	}
	return nil
}

func TestQueryProducerProduce(t *testing.T) {
	t.Run("requires a reply future", func(t *testing.T) {
		requester := &fakeRequester{}
		producer := NewQueryProducer(requester, NewEnvelopeBuilder("billing-service"))

		msg := &testEvent{BaseMessage: contracts.NewBaseMessage("balance.query")}
		err := producer.Produce(context.Background(), msg, nil)

		assert.ErrorIs(t, err, contracts.ErrUnsupportedOperation)
		assert.Zero(t, requester.requestCount())
	})

	t.Run("resolves the future with the decoded response", func(t *testing.T) {
		requester := &fakeRequester{
			respond: func(string) *RequestResult {
				return &RequestResult{Payload: map[string]interface{}{"balance": 42.0}}
			},
		}
		producer := NewQueryProducer(requester, NewEnvelopeBuilder("billing-service"))

		msg := &testEvent{BaseMessage: contracts.NewBaseMessage("balance.query")}
		reply := NewReplyFuture()
		require.NoError(t, producer.Produce(context.Background(), msg, reply))

		payload, err := reply.Await(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 42.0, payload["balance"])
		assert.Equal(t, 1, requester.requestCount())
	})

	t.Run("rejects the future with the transport error unmodified", func(t *testing.T) {
		cause := &contracts.TransportError{Op: "request", RoutingKey: "balance.query", Err: context.DeadlineExceeded}
		requester := &fakeRequester{
			respond: func(string) *RequestResult {
				return &RequestResult{Err: cause}
			},
		}
		producer := NewQueryProducer(requester, NewEnvelopeBuilder("billing-service"))

		msg := &testEvent{BaseMessage: contracts.NewBaseMessage("balance.query")}
		reply := NewReplyFuture()
		require.NoError(t, producer.Produce(context.Background(), msg, reply))

		_, err := reply.Await(context.Background())

		var te *contracts.TransportError
		require.ErrorAs(t, err, &te)
		assert.Same(t, cause, te)
	})

	t.Run("bounds the transport request with the query timeout", func(t *testing.T) {
		requester := &fakeRequester{}
		producer := NewQueryProducer(requester, NewEnvelopeBuilder("billing-service"))

		msg := &testEvent{BaseMessage: contracts.NewBaseMessage("balance.query")}
		require.NoError(t, producer.Produce(context.Background(), msg, NewReplyFuture()))

		rctx := requester.contextFor("balance.query")
		require.NotNil(t, rctx)
		deadline, ok := rctx.Deadline()
		require.True(t, ok, "request context should carry the query timeout")
		assert.WithinDuration(t, time.Now().Add(DefaultQueryTimeout), deadline, time.Second)
	})

	t.Run("rejects the future when the transport never answers", func(t *testing.T) {
		requester := &fakeRequester{}
		producer := NewQueryProducer(requester, NewEnvelopeBuilder("billing-service"), WithQueryTimeout(25*time.Millisecond))

		msg := &testEvent{BaseMessage: contracts.NewBaseMessage("balance.query")}
		reply := NewReplyFuture()
		require.NoError(t, producer.Produce(context.Background(), msg, reply))

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, err := reply.Await(ctx)

		require.Error(t, err)
		var te *contracts.TransportError
		require.ErrorAs(t, err, &te)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("fails synchronously when envelope construction fails", func(t *testing.T) {
		requester := &fakeRequester{}
		builder := NewEnvelopeBuilder("billing-service", WithConverter(mapConverter{payload: map[string]interface{}{}}))
		producer := NewQueryProducer(requester, builder)

		msg := &testEvent{BaseMessage: contracts.NewBaseMessage("balance.query")}
		err := producer.Produce(context.Background(), msg, NewReplyFuture())

		assert.ErrorIs(t, err, contracts.ErrInvalidMessageData)
		assert.Zero(t, requester.requestCount())
	})

	t.Run("rejects a nil message", func(t *testing.T) {
		requester := &fakeRequester{}
		producer := NewQueryProducer(requester, NewEnvelopeBuilder("billing-service"))

		err := producer.Produce(context.Background(), nil, NewReplyFuture())

		assert.ErrorIs(t, err, contracts.ErrInvalidMessageData)
		assert.Zero(t, requester.requestCount())
	})
}
