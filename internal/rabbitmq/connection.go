package rabbitmq

import (
	"context"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ConnectionManager maintains the AMQP connection and re-dials it when the broker
// drops it.
type ConnectionManager struct {
	url            string
	conn           *amqp.Connection
	mu             sync.RWMutex
	reconnectDelay time.Duration
	maxRetries     int
	logger         *slog.Logger
	isConnected    bool
	done           chan struct{}
	closeOnce      sync.Once
}

// ConnectionOption configures the ConnectionManager
type ConnectionOption func(*ConnectionManager)

// WithConnectionLogger sets the logger
func WithConnectionLogger(logger *slog.Logger) ConnectionOption {
	return func(cm *ConnectionManager) {
		cm.logger = logger
	}
}

// WithReconnectDelay sets the delay between reconnection attempts
func WithReconnectDelay(delay time.Duration) ConnectionOption {
	return func(cm *ConnectionManager) {
		cm.reconnectDelay = delay
	}
}

// WithMaxRetries sets the maximum number of reconnection attempts, -1 for infinite
func WithMaxRetries(retries int) ConnectionOption {
	return func(cm *ConnectionManager) {
		cm.maxRetries = retries
	}
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager(url string, options ...ConnectionOption) *ConnectionManager {
	cm := &ConnectionManager{
		url:            url,
		reconnectDelay: 5 * time.Second,
		maxRetries:     -1,
		logger:         slog.Default(),
		done:           make(chan struct{}),
	}

	for _, opt := range options {
		opt(cm)
	}

	return cm
}

// Connect establishes the connection and starts the reconnect monitor
func (cm *ConnectionManager) Connect(ctx context.Context) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.isConnected {
		return nil
	}

	conn, err := amqp.Dial(cm.url)
	if err != nil {
		return &ConnectionError{Op: "dial", Err: err}
	}

	cm.conn = conn
	cm.isConnected = true
	cm.logger.Info("connected to rabbitmq")

	go cm.monitor(conn.NotifyClose(make(chan *amqp.Error, 1)))

	return nil
}

// Channel opens a new channel on the managed connection
func (cm *ConnectionManager) Channel() (*amqp.Channel, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if !cm.isConnected || cm.conn == nil {
		return nil, ErrNotConnected
	}

	return cm.conn.Channel()
}

// IsConnected returns the connection status
func (cm *ConnectionManager) IsConnected() bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.isConnected
}

// Close shuts down the connection and stops reconnecting
func (cm *ConnectionManager) Close() error {
	cm.closeOnce.Do(func() {
		close(cm.done)
	})

	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.isConnected = false
	if cm.conn != nil && !cm.conn.IsClosed() {
		return cm.conn.Close()
	}
	return nil
}

// monitor watches for broker-side closes and drives the reconnect loop
func (cm *ConnectionManager) monitor(closed <-chan *amqp.Error) {
	select {
	case <-cm.done:
		return
	case amqpErr, ok := <-closed:
		if !ok {
			return
		}

		cm.mu.Lock()
		cm.isConnected = false
		cm.mu.Unlock()

		cm.logger.Warn("connection lost", "error", amqpErr)
		cm.reconnect()
	}
}

func (cm *ConnectionManager) reconnect() {
	attempt := 0
	for cm.maxRetries < 0 || attempt < cm.maxRetries {
		attempt++

		select {
		case <-cm.done:
			return
		case <-time.After(cm.reconnectDelay):
		}

		cm.logger.Info("reconnecting to rabbitmq", "attempt", attempt)

		conn, err := amqp.Dial(cm.url)
		if err != nil {
			cm.logger.Error("reconnection attempt failed", "attempt", attempt, "error", err)
			continue
		}

		cm.mu.Lock()
		cm.conn = conn
		cm.isConnected = true
		cm.mu.Unlock()

		cm.logger.Info("reconnected to rabbitmq", "attempt", attempt)
		go cm.monitor(conn.NotifyClose(make(chan *amqp.Error, 1)))
		return
	}

	cm.logger.Error("giving up on reconnection", "attempts", attempt)
}
