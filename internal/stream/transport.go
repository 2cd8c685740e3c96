package stream

import (
	"context"

	"nhooyr.io/websocket"
)

// Conn is a single live connection to the transaction feed.
type Conn interface {
	// ReadMessage blocks until the next message arrives, the context is
	// cancelled, or the connection dies.
	ReadMessage(ctx context.Context) ([]byte, error)
	Close() error
}

// Dialer opens connections to the transaction feed. Tests swap in a
// scripted transport.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebsocketDialer dials the backend's WebSocket feed.
type WebsocketDialer struct{}

// NewWebsocketDialer creates the production dialer.
func NewWebsocketDialer() *WebsocketDialer {
	return &WebsocketDialer{}
}

// Dial establishes a WebSocket connection to the given URL.
func (d *WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &websocketConn{conn: conn}, nil
}

type websocketConn struct {
	conn *websocket.Conn
}

func (c *websocketConn) ReadMessage(ctx context.Context) ([]byte, error) {
	// nhooyr.io/websocket handles ping/pong automatically.
	_, data, err := c.conn.Read(ctx)
	return data, err
}

func (c *websocketConn) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}
