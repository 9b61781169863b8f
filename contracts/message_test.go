package contracts

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Message         = BaseMessage{}
	_ DelayedMessage  = BaseDelayedMessage{}
	_ ParallelMessage = BaseParallelQuery{}
)

func TestNewBaseMessage(t *testing.T) {
	t.Run("generates ID and creation time", func(t *testing.T) {
		before := time.Now().UTC()
		msg := NewBaseMessage("order.created")
		after := time.Now().UTC()

		assert.NotEmpty(t, msg.GetID())
		assert.Equal(t, "order.created", msg.GetName())
		assert.False(t, msg.GetCreatedAt().Before(before))
		assert.False(t, msg.GetCreatedAt().After(after))
	})

	t.Run("generates unique IDs", func(t *testing.T) {
		a := NewBaseMessage("a")
		b := NewBaseMessage("a")
		assert.NotEqual(t, a.GetID(), b.GetID())
	})

	t.Run("creation time is not serialized into the payload", func(t *testing.T) {
		msg := NewBaseMessage("order.created")

		raw, err := json.Marshal(msg)
		require.NoError(t, err)

		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &payload))
		assert.Contains(t, payload, "id")
		assert.Contains(t, payload, "name")
		assert.NotContains(t, payload, "CreatedAt")
	})
}

func TestBaseDelayedMessage(t *testing.T) {
	t.Run("stores execution time in UTC", func(t *testing.T) {
		loc := time.FixedZone("CET", 3600)
		executeAt := time.Date(2026, 1, 2, 15, 0, 0, 0, loc)

		msg := NewBaseDelayedMessage("report.generate", executeAt)

		assert.Equal(t, executeAt.UTC(), msg.GetExecuteAt())
		assert.Equal(t, time.UTC, msg.GetExecuteAt().Location())
	})
}

func TestBaseParallelQuery(t *testing.T) {
	t.Run("returns constituents in submission order", func(t *testing.T) {
		first := NewBaseMessage("stock.query")
		second := NewBaseMessage("price.query")

		query := NewBaseParallelQuery("availability.query", []Message{first, second})

		require.Len(t, query.GetMessages(), 2)
		assert.Equal(t, "stock.query", query.GetMessages()[0].GetName())
		assert.Equal(t, "price.query", query.GetMessages()[1].GetName())
	})

	t.Run("constituents are not serialized into the parent payload", func(t *testing.T) {
		query := NewBaseParallelQuery("availability.query", []Message{NewBaseMessage("stock.query")})

		raw, err := json.Marshal(query)
		require.NoError(t, err)

		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &payload))
		assert.NotContains(t, payload, "Messages")
	})
}
