package messaging

import (
	"github.com/glimte/dispatch-go/contracts"
)

// DispatchKind identifies which producer a message belongs to. It is resolved once
// per message, before dispatch.
type DispatchKind int

const (
	// DispatchPlain is a fire-and-forget command or event
	DispatchPlain DispatchKind = iota

	// DispatchDelayed is a message carrying a future execution time
	DispatchDelayed

	// DispatchParallel is a query that decomposes into constituent queries
	DispatchParallel
)

// String returns the kind name
func (k DispatchKind) String() string {
	switch k {
	case DispatchDelayed:
		return "delayed"
	case DispatchParallel:
		return "parallel"
	default:
		return "plain"
	}
}

// Classify resolves a message's dispatch kind from its capabilities. A message is
// classified as exactly one kind; parallel takes precedence over delayed because
// decomposition changes the dispatch shape, while a delay is only a publish
// parameter. Producers stay capability-specific, so the configuring caller can
// still route a message carrying both capabilities to the delayed producer.
func Classify(msg contracts.Message) DispatchKind {
	switch msg.(type) {
	case contracts.ParallelMessage:
		return DispatchParallel
	case contracts.DelayedMessage:
		return DispatchDelayed
	default:
		return DispatchPlain
	}
}
