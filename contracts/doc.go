// Package contracts provides the core message types for the dispatch framework.
//
// This package defines the contracts for messages that flow through the producers:
//   - Message: base interface for all messages
//   - DelayedMessage: a message carrying a future execution time
//   - ParallelMessage: a message that decomposes into independent constituent queries
//   - Envelope: the wire-ready payload and attribute pair derived from a message
//
// All message types are designed to be serializable and compatible with the existing
// consumers of the envelope wire shape.
package contracts
