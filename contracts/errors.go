package contracts

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedOperation indicates a producer received a call shape it cannot
	// fulfill, such as a reply future handed to a fire-and-forget producer. The
	// caller must route the message to a capability-appropriate producer; the call
	// is never retried internally.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrInvalidMessageData indicates envelope construction failed validation.
	// The input is malformed, not transient, so the call is never retried.
	ErrInvalidMessageData = errors.New("invalid message data")
)

// TransportError surfaces a broker or network failure from the transport
// capability. Producers propagate it unmodified; retry policy, if any, belongs to
// the transport collaborator.
type TransportError struct {
	Op         string
	RoutingKey string
	Err        error
}

func (e *TransportError) Error() string {
	if e.RoutingKey != "" {
		return fmt.Sprintf("transport %s failed for routing key %s: %v", e.Op, e.RoutingKey, e.Err)
	}
	return fmt.Sprintf("transport %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
