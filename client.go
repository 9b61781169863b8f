package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/glimte/dispatch-go/internal/rabbitmq"
	"github.com/glimte/dispatch-go/messaging"
)

// Client is the main entry point for the dispatch framework. It owns the broker
// connection and wires the capability-specific producers to it.
type Client struct {
	manager     *rabbitmq.ConnectionManager
	pool        *rabbitmq.ChannelPool
	publisher   *rabbitmq.Publisher
	requester   *rabbitmq.Requester
	builder     *messaging.EnvelopeBuilder
	producer    *messaging.BasicProducer
	delayed     *messaging.DelayedProducer
	queries     *messaging.QueryProducer
	coordinator *messaging.ParallelQueryCoordinator
}

type clientConfig struct {
	appID           string
	logger          *slog.Logger
	exchange        string
	delayedExchange string
	queryExchange   string
	queryTimeout    time.Duration
	converter       messaging.MessageConverter
}

// ClientOption configures the client
type ClientOption func(*clientConfig)

// WithAppID sets the app_id attribute stamped on every envelope
func WithAppID(appID string) ClientOption {
	return func(cfg *clientConfig) {
		cfg.appID = appID
	}
}

// WithLogger sets the logger shared by all components
func WithLogger(logger *slog.Logger) ClientOption {
	return func(cfg *clientConfig) {
		cfg.logger = logger
	}
}

// WithExchange sets the exchange for fire-and-forget messages
func WithExchange(exchange string) ClientOption {
	return func(cfg *clientConfig) {
		cfg.exchange = exchange
	}
}

// WithDelayedExchange sets the delay-capable exchange
func WithDelayedExchange(exchange string) ClientOption {
	return func(cfg *clientConfig) {
		cfg.delayedExchange = exchange
	}
}

// WithQueryExchange sets the exchange for queries
func WithQueryExchange(exchange string) ClientOption {
	return func(cfg *clientConfig) {
		cfg.queryExchange = exchange
	}
}

// WithQueryTimeout bounds outstanding queries and parallel slots
func WithQueryTimeout(timeout time.Duration) ClientOption {
	return func(cfg *clientConfig) {
		cfg.queryTimeout = timeout
	}
}

// WithMessageConverter sets a custom payload converter
func WithMessageConverter(converter messaging.MessageConverter) ClientOption {
	return func(cfg *clientConfig) {
		cfg.converter = converter
	}
}

// NewClient connects to the broker and wires the producers
func NewClient(ctx context.Context, connectionString string, options ...ClientOption) (*Client, error) {
	cfg := &clientConfig{
		appID:           "dispatch",
		logger:          slog.Default(),
		exchange:        "dispatch.messages",
		delayedExchange: "dispatch.delayed",
		queryExchange:   "dispatch.queries",
		queryTimeout:    messaging.DefaultQueryTimeout,
	}

	for _, opt := range options {
		opt(cfg)
	}

	manager := rabbitmq.NewConnectionManager(connectionString, rabbitmq.WithConnectionLogger(cfg.logger))
	if err := manager.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	pool, err := rabbitmq.NewChannelPool(manager)
	if err != nil {
		manager.Close()
		return nil, fmt.Errorf("failed to create channel pool: %w", err)
	}

	topology := rabbitmq.NewTopologyManager(pool)
	err = topology.DeclareTopology(ctx, rabbitmq.Topology{
		Exchanges: []rabbitmq.ExchangeDeclaration{
			{Name: cfg.exchange, Type: "topic", Durable: true},
			{Name: cfg.queryExchange, Type: "topic", Durable: true},
			rabbitmq.DelayedExchange(cfg.delayedExchange, "topic"),
		},
	})
	if err != nil {
		pool.Close()
		manager.Close()
		return nil, fmt.Errorf("failed to declare topology: %w", err)
	}

	publisher := rabbitmq.NewPublisher(pool, rabbitmq.WithPublisherLogger(cfg.logger))
	requester, err := rabbitmq.NewRequester(manager, rabbitmq.WithRequesterLogger(cfg.logger))
	if err != nil {
		pool.Close()
		manager.Close()
		return nil, fmt.Errorf("failed to create requester: %w", err)
	}

	builderOpts := []messaging.EnvelopeBuilderOption{}
	if cfg.converter != nil {
		builderOpts = append(builderOpts, messaging.WithConverter(cfg.converter))
	}
	builder := messaging.NewEnvelopeBuilder(cfg.appID, builderOpts...)

	return &Client{
		manager:   manager,
		pool:      pool,
		publisher: publisher,
		requester: requester,
		builder:   builder,
		producer: messaging.NewBasicProducer(publisher, builder,
			messaging.WithProducerExchange(cfg.exchange),
			messaging.WithProducerLogger(cfg.logger),
		),
		delayed: messaging.NewDelayedProducer(publisher, builder,
			messaging.WithDelayedExchange(cfg.delayedExchange),
			messaging.WithDelayedLogger(cfg.logger),
		),
		queries: messaging.NewQueryProducer(requester, builder,
			messaging.WithQueryExchange(cfg.queryExchange),
			messaging.WithQueryTimeout(cfg.queryTimeout),
			messaging.WithQueryLogger(cfg.logger),
		),
		coordinator: messaging.NewParallelQueryCoordinator(requester, builder,
			messaging.WithCoordinatorExchange(cfg.queryExchange),
			messaging.WithSlotTimeout(cfg.queryTimeout),
			messaging.WithCoordinatorLogger(cfg.logger),
		),
	}, nil
}

// Producer returns the fire-and-forget producer for commands and events
func (c *Client) Producer() *messaging.BasicProducer {
	return c.producer
}

// DelayedProducer returns the producer targeting the delay-capable exchange
func (c *Client) DelayedProducer() *messaging.DelayedProducer {
	return c.delayed
}

// QueryProducer returns the request/response producer
func (c *Client) QueryProducer() *messaging.QueryProducer {
	return c.queries
}

// Coordinator returns the parallel query coordinator
func (c *Client) Coordinator() *messaging.ParallelQueryCoordinator {
	return c.coordinator
}

// EnvelopeBuilder returns the shared envelope builder
func (c *Client) EnvelopeBuilder() *messaging.EnvelopeBuilder {
	return c.builder
}

// Close shuts down the requester, the channel pool and the connection
func (c *Client) Close() error {
	err := c.requester.Close()
	if perr := c.publisher.Close(); err == nil {
		err = perr
	}
	if perr := c.pool.Close(); err == nil {
		err = perr
	}
	if cerr := c.manager.Close(); err == nil {
		err = cerr
	}
	return err
}
