package wsserver

import (
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const maxMessageSize = 4096

// Conn carries lines over WebSocket text frames. Outbound, every line is its own
// frame; inbound, a frame holding several lines yields each of them in turn.
type Conn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration
	pending      []string

	mu        sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewConn wraps an upgraded WebSocket connection.
func NewConn(ws *websocket.Conn, writeTimeout time.Duration) *Conn {
	ws.SetReadLimit(maxMessageSize)
	return &Conn{ws: ws, writeTimeout: writeTimeout}
}

// ReadLine returns the next line received. Frames are split on "\r\n", "\r" and "\n";
// a single trailing terminator does not produce an extra empty line.
// Binary frames are skipped. A normal close from the peer is reported as io.EOF.
func (c *Conn) ReadLine() (string, error) {
	for {
		if len(c.pending) > 0 {
			line := c.pending[0]
			c.pending = c.pending[1:]
			return line, nil
		}

		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				return "", io.EOF
			}
			return "", err
		}
		if kind != websocket.TextMessage {
			continue
		}
		c.pending = splitLines(string(data))
	}
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// WriteLine sends line as a single text frame.
func (c *Conn) WriteLine(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writeTimeout > 0 {
		if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	return c.ws.WriteMessage(websocket.TextMessage, []byte(line))
}

// Close sends a close frame on a best-effort basis and releases the connection.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		c.mu.Unlock()
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

// RemoteHost returns the peer host without the port.
func (c *Conn) RemoteHost() string {
	addr := c.ws.RemoteAddr().String()
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
