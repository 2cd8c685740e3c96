// Package stream maintains the live WebSocket subscription to the fraud
// backend's transaction feed and dispatches decoded events to a sink.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fdtlabs/fraudlens/internal/domain"
)

const (
	dialTimeout = 10 * time.Second

	// The feed is retried forever at a fixed cadence. The backend drops
	// idle connections routinely, so backoff growth buys nothing here.
	reconnectDelay = 2 * time.Second
)

// Stream event types sent by the backend.
const (
	eventTxInserted = "tx_inserted"
	eventTxUpdated  = "tx_updated"
)

// State describes the connection lifecycle.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// envelope is the wire format of every feed message.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Sink receives decoded transaction events from the feed.
type Sink interface {
	TransactionInserted(tx domain.Transaction)
	TransactionUpdated(tx domain.Transaction)
}

// Client handles real-time transaction updates from the fraud backend.
type Client struct {
	// Connection
	url        string
	dialer     Dialer
	conn       Conn
	connCtx    context.Context    // Connection context (cancelled on disconnect)
	cancelFunc context.CancelFunc // For cancelling the connection context
	mu         sync.RWMutex

	// Dependencies
	sink Sink
	log  zerolog.Logger

	// State
	state        State
	reconnecting bool
	stopChan     chan struct{}
	stopped      bool
	backoff      time.Duration
}

// NewClient creates a new transaction stream client.
func NewClient(url string, dialer Dialer, sink Sink, log zerolog.Logger) *Client {
	return &Client{
		url:      url,
		dialer:   dialer,
		sink:     sink,
		log:      log.With().Str("component", "transaction_stream").Logger(),
		stopChan: make(chan struct{}),
		backoff:  reconnectDelay,
	}
}

// Start establishes the initial connection and starts the read loop.
// On failure the client keeps retrying in the background.
func (c *Client) Start() error {
	c.log.Info().Msg("Starting transaction stream client")

	if err := c.connect(); err != nil {
		c.log.Warn().Err(err).Msg("Initial stream connection failed, will retry in background")
		go c.reconnectLoop()
		return err
	}

	c.mu.RLock()
	ctx := c.connCtx
	c.mu.RUnlock()
	go c.readMessages(ctx)

	c.log.Info().Msg("Transaction stream client started")
	return nil
}

// Stop gracefully shuts down the stream connection. No reconnection is
// attempted afterwards.
func (c *Client) Stop() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	c.mu.Unlock()

	c.log.Info().Msg("Stopping transaction stream client")

	// Signal stop
	close(c.stopChan)

	return c.disconnect()
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsConnected reports whether the feed is currently live.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// SetReconnectDelay overrides the retry cadence. Call before Start.
func (c *Client) SetReconnectDelay(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.backoff = d
	c.mu.Unlock()
}

// connect dials the feed and stores the live connection.
func (c *Client) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Stop may land before the starting goroutine runs; a dial after
	// that would leak the connection.
	if c.stopped {
		return errors.New("stream client is stopped")
	}

	// Release the previous dead connection before dialing anew.
	if c.cancelFunc != nil {
		c.cancelFunc()
		c.cancelFunc = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}

	c.state = StateConnecting
	c.log.Info().Str("url", c.url).Msg("Connecting to transaction stream")

	dialCtx, dialCancel := context.WithTimeout(context.Background(), dialTimeout)
	defer dialCancel()

	conn, err := c.dialer.Dial(dialCtx, c.url)
	if err != nil {
		c.state = StateDisconnected
		return fmt.Errorf("failed to dial stream: %w", err)
	}

	// Long-lived context for the connection, cancelled on disconnect to
	// unblock pending reads.
	connCtx, connCancel := context.WithCancel(context.Background())
	c.conn = conn
	c.connCtx = connCtx
	c.cancelFunc = connCancel
	c.state = StateConnected

	c.log.Info().Msg("Connected to transaction stream")
	return nil
}

// disconnect closes the current connection, if any.
func (c *Client) disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		c.state = StateDisconnected
		return nil
	}

	if c.cancelFunc != nil {
		c.cancelFunc()
		c.cancelFunc = nil
	}

	err := c.conn.Close()
	c.conn = nil
	c.connCtx = nil
	c.state = StateDisconnected

	if err != nil {
		return fmt.Errorf("error closing stream connection: %w", err)
	}
	return nil
}

// readMessages continuously reads messages from the feed.
func (c *Client) readMessages(ctx context.Context) {
	defer func() {
		c.mu.Lock()
		stopped := c.stopped
		if !stopped {
			c.state = StateDisconnected
		}
		c.mu.Unlock()

		c.log.Debug().Msg("Read loop stopped")
		if !stopped {
			go c.reconnectLoop()
		}
	}()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ctx.Done():
			c.log.Debug().Msg("Read loop context cancelled")
			return
		default:
		}

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()

		if conn == nil {
			return
		}

		message, err := conn.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Debug().Msg("Read cancelled by context")
			} else {
				c.log.Warn().Err(err).Msg("Stream read error")
			}
			return
		}

		// Garbage on the feed must never kill the subscription.
		if err := c.handleMessage(message); err != nil {
			c.log.Debug().Err(err).Str("message", string(message)).Msg("Ignoring malformed stream message")
		}
	}
}

// handleMessage parses a feed envelope and dispatches it to the sink.
func (c *Client) handleMessage(message []byte) error {
	var env envelope
	if err := json.Unmarshal(message, &env); err != nil {
		return fmt.Errorf("failed to parse stream envelope: %w", err)
	}

	switch env.Type {
	case eventTxInserted:
		var tx domain.Transaction
		if err := json.Unmarshal(env.Data, &tx); err != nil {
			return fmt.Errorf("failed to parse transaction payload: %w", err)
		}
		c.sink.TransactionInserted(tx)
	case eventTxUpdated:
		var tx domain.Transaction
		if err := json.Unmarshal(env.Data, &tx); err != nil {
			return fmt.Errorf("failed to parse transaction payload: %w", err)
		}
		c.sink.TransactionUpdated(tx)
	default:
		c.log.Debug().Str("type", env.Type).Msg("Ignoring unknown stream event")
	}
	return nil
}

// reconnectLoop retries the connection until it succeeds or the client
// is stopped.
func (c *Client) reconnectLoop() {
	c.mu.Lock()
	if c.reconnecting || c.stopped {
		c.mu.Unlock()
		return
	}
	c.reconnecting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.reconnecting = false
		c.mu.Unlock()
	}()

	attempt := 0
	for {
		select {
		case <-c.stopChan:
			c.log.Debug().Msg("Reconnect loop stopped")
			return
		default:
		}

		c.mu.RLock()
		stopped := c.stopped
		backoff := c.backoff
		c.mu.RUnlock()
		if stopped {
			return
		}

		attempt++
		c.log.Info().
			Int("attempt", attempt).
			Dur("delay", backoff).
			Msg("Reconnecting to transaction stream")

		select {
		case <-time.After(backoff):
		case <-c.stopChan:
			return
		}

		if err := c.connect(); err != nil {
			c.log.Warn().Err(err).Int("attempt", attempt).Msg("Reconnection failed")
			continue
		}

		c.log.Info().Int("attempt", attempt).Msg("Reconnected to transaction stream")

		c.mu.RLock()
		ctx := c.connCtx
		c.mu.RUnlock()
		go c.readMessages(ctx)
		return
	}
}
