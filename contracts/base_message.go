package contracts

import (
	"time"

	"github.com/google/uuid"
)

// BaseMessage provides common fields for all message types
type BaseMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"-"`
}

// NewBaseMessage creates a new base message with generated ID and current timestamp
func NewBaseMessage(name string) BaseMessage {
	return BaseMessage{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
}

// GetID returns the message ID
func (m BaseMessage) GetID() string {
	return m.ID
}

// GetName returns the message name, used as routing key and type attribute
func (m BaseMessage) GetName() string {
	return m.Name
}

// GetCreatedAt returns the message creation time
func (m BaseMessage) GetCreatedAt() time.Time {
	return m.CreatedAt
}

// BaseDelayedMessage provides common fields for messages scheduled for future delivery
type BaseDelayedMessage struct {
	BaseMessage
	ExecuteAt time.Time `json:"-"`
}

// NewBaseDelayedMessage creates a delayed message scheduled for executeAt
func NewBaseDelayedMessage(name string, executeAt time.Time) BaseDelayedMessage {
	return BaseDelayedMessage{
		BaseMessage: NewBaseMessage(name),
		ExecuteAt:   executeAt.UTC(),
	}
}

// GetExecuteAt returns the scheduled execution time
func (m BaseDelayedMessage) GetExecuteAt() time.Time {
	return m.ExecuteAt
}

// BaseParallelQuery provides common fields for queries that fan out to multiple
// independent responders. The constituents are dispatched individually and never
// serialized into the parent payload.
type BaseParallelQuery struct {
	BaseMessage
	Messages []Message `json:"-"`
}

// NewBaseParallelQuery creates a parallel query from its constituent messages
func NewBaseParallelQuery(name string, messages []Message) BaseParallelQuery {
	return BaseParallelQuery{
		BaseMessage: NewBaseMessage(name),
		Messages:    messages,
	}
}

// GetMessages returns the constituent messages in submission order
func (q BaseParallelQuery) GetMessages() []Message {
	return q.Messages
}
