// Package messaging provides the message production core of the dispatch framework.
//
// This package implements the producer-side patterns:
//   - EnvelopeBuilder: derives wire-ready envelopes from typed messages
//   - Classify: resolves a message's dispatch kind from its capabilities
//   - BasicProducer: fire-and-forget publishing for commands and events
//   - DelayedProducer: publishing with a delay header for delay-capable exchanges
//   - QueryProducer: request/response publishing bridged to a caller-owned future
//   - ParallelQueryCoordinator: concurrent fan-out of a parallel query with
//     slot-indexed aggregation of all outcomes
//
// Producers are capability-specific, explicitly configured instances. They hold the
// transport capability as an injected dependency and are safe for concurrent use as
// long as the transport itself is safe for concurrent publish calls.
//
// Example usage:
//
//	builder := messaging.NewEnvelopeBuilder("billing-service")
//	producer := messaging.NewBasicProducer(transport, builder)
//	err := producer.Produce(ctx, &InvoiceIssued{
//		BaseMessage: contracts.NewBaseMessage("invoice.issued"),
//		InvoiceID:   "inv-42",
//	}, nil)
//
//	queries := messaging.NewQueryProducer(requester, builder)
//	reply := messaging.NewReplyFuture()
//	if err := queries.Produce(ctx, query, reply); err != nil {
//		return err
//	}
//	payload, err := reply.Await(ctx)
package messaging
