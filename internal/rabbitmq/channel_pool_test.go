package rabbitmq

import (
	"context"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChannelPool(t *testing.T) {
	t.Run("requires a connection manager", func(t *testing.T) {
		pool, err := NewChannelPool(nil)

		assert.Nil(t, pool)
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	})

	t.Run("rejects a non-positive pool size", func(t *testing.T) {
		manager := NewConnectionManager("amqp://localhost")
		pool, err := NewChannelPool(manager, WithMaxChannels(0))

		assert.Nil(t, pool)
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	})
}

func TestChannelPoolClose(t *testing.T) {
	t.Run("is idempotent", func(t *testing.T) {
		manager := NewConnectionManager("amqp://localhost")
		pool, err := NewChannelPool(manager)
		require.NoError(t, err)

		assert.NoError(t, pool.Close())
		assert.NoError(t, pool.Close())
	})

	t.Run("get after close reports the pool closed", func(t *testing.T) {
		manager := NewConnectionManager("amqp://localhost")
		pool, err := NewChannelPool(manager)
		require.NoError(t, err)
		require.NoError(t, pool.Close())

		ch, err := pool.Get(context.Background())

		assert.Nil(t, ch)
		assert.ErrorIs(t, err, ErrChannelPoolClosed)
	})

	t.Run("leaves the pool channel open so a racing return cannot panic", func(t *testing.T) {
		manager := NewConnectionManager("amqp://localhost")
		pool, err := NewChannelPool(manager)
		require.NoError(t, err)
		require.NoError(t, pool.Close())

		// A send that lost the race against Close must be dropped, never panic.
		assert.NotPanics(t, func() {
			select {
			case pool.channels <- &amqp.Channel{}:
			default:
			}
		})
	})
}
