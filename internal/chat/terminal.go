package chat

import (
	"bufio"
	"io"
	"sync"
	"unicode"
)

const (
	ctrlC      = 0x03
	ctrlD      = 0x04
	backspace  = '\b'
	deleteChar = 0x7f

	seqClearLine = "\r\033[K"
)

// terminalConn reads keystrokes from an interactive stream such as an SSH channel.
// Enter may arrive as '\r', '\n' or "\r\n"; all three end exactly one line.
// With echo set (a pty was granted) typed input is echoed back and inbound lines
// are drawn above the line being typed.
type terminalConn struct {
	rwc     io.ReadWriteCloser
	reader  *bufio.Reader
	buffer  *lineBuffer
	echo    bool
	afterCR bool

	mu        sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func newTerminalConn(rwc io.ReadWriteCloser, echo bool) *terminalConn {
	return &terminalConn{
		rwc:    rwc,
		reader: bufio.NewReader(rwc),
		buffer: newLineBuffer(128),
		echo:   echo,
	}
}

func (c *terminalConn) ReadLine() (string, error) {
	for {
		r, _, err := c.reader.ReadRune()
		if err != nil {
			if err == io.EOF {
				if text := c.buffer.Drain(); text != "" {
					return text, nil
				}
			}
			return "", err
		}

		afterCR := c.afterCR
		c.afterCR = false

		switch r {
		case '\r', '\n':
			if r == '\n' && afterCR {
				continue
			}
			c.afterCR = r == '\r'
			line := c.buffer.Drain()
			if err := c.echoString("\r\n"); err != nil {
				return "", err
			}
			return line, nil
		case ctrlC, ctrlD:
			return "", io.EOF
		case backspace, deleteChar:
			if c.buffer.TrimLast() {
				if err := c.echoString("\b \b"); err != nil {
					return "", err
				}
			}
		default:
			if !unicode.IsPrint(r) {
				continue
			}
			c.buffer.Append(r)
			if err := c.echoString(string(r)); err != nil {
				return "", err
			}
		}
	}
}

func (c *terminalConn) WriteLine(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := line + "\r\n"
	if c.echo {
		out = seqClearLine + out + c.buffer.Snapshot()
	}
	_, err := io.WriteString(c.rwc, out)
	return err
}

func (c *terminalConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.rwc.Close()
	})
	return c.closeErr
}

func (c *terminalConn) echoString(s string) error {
	if !c.echo {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.rwc, s)
	return err
}
