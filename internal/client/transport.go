package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/coder/websocket"

	"github.com/vovakirdan/locshare/internal/proto"
)

const defaultReadLimit = 4096

// Conn is one open connection carrying location frames.
type Conn interface {
	// Read blocks for the next text frame.
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close() error
}

// Transport opens connections to an endpoint.
type Transport interface {
	Dial(ctx context.Context, endpoint string) (Conn, error)
}

// EndpointFromOrigin derives the socket endpoint from an HTTP origin:
// https becomes wss, http becomes ws, and the path is always /ws.
func EndpointFromOrigin(origin string) (string, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("parse origin: %w", err)
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported origin scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("origin %q has no host", origin)
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: proto.WSPath}).String(), nil
}

// WebSocketTransport dials endpoints with coder/websocket.
type WebSocketTransport struct {
	ReadLimit int64
	Options   *websocket.DialOptions
}

// NewWebSocketTransport returns a transport with the server's frame limit.
func NewWebSocketTransport() *WebSocketTransport {
	return &WebSocketTransport{ReadLimit: defaultReadLimit}
}

func (t *WebSocketTransport) Dial(ctx context.Context, endpoint string) (Conn, error) {
	conn, _, err := websocket.Dial(ctx, endpoint, t.Options)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	if t.ReadLimit > 0 {
		conn.SetReadLimit(t.ReadLimit)
	}
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) Read(ctx context.Context) ([]byte, error) {
	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			return nil, err
		}
		if typ == websocket.MessageText {
			return data, nil
		}
	}
}

func (c *wsConn) Write(ctx context.Context, data []byte) error {
	return c.conn.Write(ctx, websocket.MessageText, data)
}

func (c *wsConn) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "client closing")
}
