package chat

import (
	"bufio"
	"io"
	"strings"
	"sync"
	"time"
)

// Conn is an ordered, line-oriented, bidirectional stream owned by exactly one session.
type Conn interface {
	// ReadLine blocks until a full line arrives and returns it without its terminator.
	// io.EOF signals the end of the stream and is never paired with a line.
	ReadLine() (string, error)
	// WriteLine writes line followed by the line terminator and flushes it.
	WriteLine(line string) error
	Close() error
}

// ConnOption tunes a stream-backed Conn.
type ConnOption func(*streamConn)

// WithLineEnding sets the terminator appended by WriteLine. Defaults to "\n".
func WithLineEnding(eol string) ConnOption {
	return func(c *streamConn) {
		if eol != "" {
			c.eol = eol
		}
	}
}

// WithWriteTimeout bounds every WriteLine when the stream supports write deadlines.
func WithWriteTimeout(timeout time.Duration) ConnOption {
	return func(c *streamConn) {
		if timeout > 0 {
			c.writeTimeout = timeout
		}
	}
}

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

type streamConn struct {
	rwc    io.ReadWriteCloser
	reader *bufio.Reader

	mu           sync.Mutex
	writer       *bufio.Writer
	eol          string
	writeTimeout time.Duration

	closeOnce sync.Once
	closeErr  error
}

// NewConn wraps a byte stream (a net.Conn, an ssh.Channel, a pipe) as a line Conn.
func NewConn(rwc io.ReadWriteCloser, opts ...ConnOption) Conn {
	c := &streamConn{
		rwc:    rwc,
		reader: bufio.NewReader(rwc),
		writer: bufio.NewWriter(rwc),
		eol:    "\n",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *streamConn) ReadLine() (string, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil {
		// A final unterminated line still counts; EOF is reported on the next call.
		if err == io.EOF && line != "" {
			return trimLineEnding(line), nil
		}
		return "", err
	}
	return trimLineEnding(line), nil
}

func (c *streamConn) WriteLine(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writeTimeout > 0 {
		if d, ok := c.rwc.(writeDeadliner); ok {
			if err := d.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				return err
			}
		}
	}
	if _, err := c.writer.WriteString(line + c.eol); err != nil {
		return err
	}
	return c.writer.Flush()
}

func (c *streamConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.rwc.Close()
	})
	return c.closeErr
}

func trimLineEnding(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
