package rabbitmq

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/glimte/dispatch-go/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPublishing(t *testing.T) {
	t.Run("maps envelope attributes onto the message properties", func(t *testing.T) {
		envelope := &contracts.Envelope{
			Payload:   map[string]interface{}{"id": "msg-1", "created_at": "2026-03-05T12:30:45.123456"},
			AppID:     "billing-service",
			Timestamp: 1772713845,
			Type:      "invoice.issued",
		}

		msg, err := toPublishing(envelope)

		require.NoError(t, err)
		assert.Equal(t, "billing-service", msg.AppId)
		assert.Equal(t, "invoice.issued", msg.Type)
		assert.Equal(t, time.Unix(1772713845, 0).UTC(), msg.Timestamp)
		assert.Equal(t, "application/json", msg.ContentType)
		assert.Nil(t, msg.Headers)

		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(msg.Body, &payload))
		assert.Equal(t, "msg-1", payload["id"])
		assert.Equal(t, "2026-03-05T12:30:45.123456", payload["created_at"])
	})

	t.Run("carries transport headers as the header table", func(t *testing.T) {
		envelope := &contracts.Envelope{
			Payload:   map[string]interface{}{"id": "msg-1"},
			AppID:     "billing-service",
			Timestamp: 1772713845,
			Type:      "report.generate",
			Headers:   map[string]interface{}{"x-delay": int64(300000)},
		}

		msg, err := toPublishing(envelope)

		require.NoError(t, err)
		require.NotNil(t, msg.Headers)
		assert.Equal(t, int64(300000), msg.Headers["x-delay"])
	})

	t.Run("fails on an unencodable payload", func(t *testing.T) {
		envelope := &contracts.Envelope{
			Payload: map[string]interface{}{"bad": make(chan int)},
		}

		_, err := toPublishing(envelope)

		assert.ErrorIs(t, err, contracts.ErrInvalidMessageData)
	})
}
