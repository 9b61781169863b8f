// Package rabbitmq provides the RabbitMQ transport for the dispatch framework.
//
// This package includes:
//   - ConnectionManager: manages the broker connection with automatic reconnection
//   - ChannelPool: provides bounded channel pooling
//   - Publisher: implements the transport publish capability
//   - Requester: implements the request/response capability via direct reply-to
//   - TopologyManager: declares exchanges, including delay-capable exchanges
//
// The producers in the messaging package consume this transport through interfaces
// only; retry and redelivery policy live here or in the broker, never in the
// producers.
package rabbitmq
