package contracts

import (
	"time"
)

// Message is the base interface for all messages handled by the producers.
// Messages are immutable once constructed; producers never mutate them.
type Message interface {
	GetID() string
	GetName() string
	GetCreatedAt() time.Time
}

// DelayedMessage is a message that carries a future execution time. Consumers must
// not pick it up before that time; the delayed producer translates the execution
// time into a delay header understood by a delay-capable exchange.
type DelayedMessage interface {
	Message
	GetExecuteAt() time.Time
}

// ParallelMessage is a message that decomposes into an ordered, non-empty sequence
// of constituent messages. Each constituent is published as an independent query.
type ParallelMessage interface {
	Message
	GetMessages() []Message
}
