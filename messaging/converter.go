package messaging

import (
	"encoding/json"
	"fmt"

	"github.com/glimte/dispatch-go/contracts"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// JSONConverter flattens a message into a payload mapping via a JSON round-trip.
// It is the default converter; applications with bespoke payload schemas supply
// their own MessageConverter instead.
type JSONConverter struct{}

// NewJSONConverter creates a new JSON converter
func NewJSONConverter() *JSONConverter {
	return &JSONConverter{}
}

// ToMap converts a message to its flat payload mapping
func (c *JSONConverter) ToMap(msg contracts.Message) (map[string]interface{}, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to serialize message %s: %v", contracts.ErrInvalidMessageData, msg.GetName(), err)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: message %s does not flatten to an object: %v", contracts.ErrInvalidMessageData, msg.GetName(), err)
	}

	return payload, nil
}

// validatePayload asserts the converter output is publishable: a non-empty mapping
// with no blank keys.
func validatePayload(payload map[string]interface{}) error {
	if err := validation.Validate(payload, validation.NotNil, validation.Required); err != nil {
		return fmt.Errorf("%w: payload: %v", contracts.ErrInvalidMessageData, err)
	}

	for key := range payload {
		if err := validation.Validate(key, validation.Required); err != nil {
			return fmt.Errorf("%w: payload key: %v", contracts.ErrInvalidMessageData, err)
		}
	}

	return nil
}
