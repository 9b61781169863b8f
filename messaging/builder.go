package messaging

import (
	"fmt"

	"github.com/glimte/dispatch-go/contracts"
)

// EnvelopeBuilder derives wire-ready envelopes from messages. It is pure: given a
// message and its creation time, the same envelope comes out every time. Both the
// timestamp attribute and the created_at payload field derive from the message
// creation time, not from the wall clock at publish time.
type EnvelopeBuilder struct {
	appID     string
	converter MessageConverter
}

// EnvelopeBuilderOption configures the builder
type EnvelopeBuilderOption func(*EnvelopeBuilder)

// WithConverter sets a custom message converter
func WithConverter(converter MessageConverter) EnvelopeBuilderOption {
	return func(b *EnvelopeBuilder) {
		b.converter = converter
	}
}

// NewEnvelopeBuilder creates a builder stamping envelopes with the given app ID
func NewEnvelopeBuilder(appID string, options ...EnvelopeBuilderOption) *EnvelopeBuilder {
	b := &EnvelopeBuilder{
		appID:     appID,
		converter: NewJSONConverter(),
	}

	for _, opt := range options {
		opt(b)
	}

	return b
}

// Build converts a message into a fresh envelope. Fails with ErrInvalidMessageData
// when the converter output does not pass payload validation.
func (b *EnvelopeBuilder) Build(msg contracts.Message) (*contracts.Envelope, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: message cannot be nil", contracts.ErrInvalidMessageData)
	}

	payload, err := b.converter.ToMap(msg)
	if err != nil {
		return nil, err
	}
	if err := validatePayload(payload); err != nil {
		return nil, err
	}

	created := msg.GetCreatedAt().UTC()
	payload["created_at"] = created.Format(contracts.CreatedAtLayout)

	return &contracts.Envelope{
		Payload:   payload,
		AppID:     b.appID,
		Timestamp: created.Unix(),
		Type:      msg.GetName(),
	}, nil
}
