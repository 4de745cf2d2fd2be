package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
)

// Client is the presentation-layer side of a connection: inbound lines are handed
// to an onMessage callback and outbound user input goes through SendLine.
type Client struct {
	conn      Conn
	onMessage func(line string)

	closing   atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
	err       error
}

// Dial connects to a server at addr. A failure is reported as ErrConnect and no
// client is returned.
func Dial(ctx context.Context, addr string, onMessage func(line string), opts ...ConnOption) (*Client, error) {
	var dialer net.Dialer
	nc, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnect, addr, err)
	}
	return NewClient(NewConn(nc, opts...), onMessage), nil
}

// NewClient starts receiving on an established Conn.
func NewClient(conn Conn, onMessage func(line string)) *Client {
	c := &Client{
		conn:      conn,
		onMessage: onMessage,
		done:      make(chan struct{}),
	}
	go c.receive()
	return c
}

// SendLine sends one line of user input.
func (c *Client) SendLine(text string) error {
	if c.closing.Load() {
		return ErrSessionClosed
	}
	if err := c.conn.WriteLine(text); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// Done is closed when the server ends the stream, the exit sentinel arrives or Close is called.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err returns the read failure that ended the client, if any. Valid after Done.
func (c *Client) Err() error {
	<-c.done
	return c.err
}

// Close ends the session. It is safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closing.Store(true)
		err = c.conn.Close()
	})
	return err
}

func (c *Client) receive() {
	defer close(c.done)
	defer c.Close()

	for {
		line, err := c.conn.ReadLine()
		if err != nil {
			if !c.closing.Load() && !errors.Is(err, io.EOF) {
				c.err = fmt.Errorf("%w: %w", ErrRead, err)
			}
			return
		}
		if c.onMessage != nil {
			c.onMessage(line)
		}
		if line == ExitLine {
			return
		}
	}
}
