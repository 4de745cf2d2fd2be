package chat

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func readAllLines(t *testing.T, conn Conn) []string {
	t.Helper()
	var lines []string
	for {
		line, err := conn.ReadLine()
		if err == io.EOF {
			return lines
		}
		require.NoError(t, err)
		lines = append(lines, line)
	}
}

func TestTerminalConnAcceptsEveryEnterVariant(t *testing.T) {
	stream := &bufferStream{Reader: strings.NewReader("cr\rlf\ncrlf\r\n\r\rtail")}
	conn := newTerminalConn(stream, false)

	require.Equal(t, []string{"cr", "lf", "crlf", "", "", "tail"}, readAllLines(t, conn))
	require.Empty(t, stream.String(), "no echo without a pty")
}

func TestTerminalConnEditsAndEchoes(t *testing.T) {
	stream := &bufferStream{Reader: strings.NewReader("hx\x7fi\r")}
	conn := newTerminalConn(stream, true)

	line, err := conn.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "hi", line)
	require.Equal(t, "hx\b \bi\r\n", stream.String())
}

func TestTerminalConnControlKeysEndTheStream(t *testing.T) {
	for _, key := range []string{"\x03", "\x04"} {
		stream := &bufferStream{Reader: strings.NewReader("typed" + key + "ignored\r")}
		conn := newTerminalConn(stream, false)

		_, err := conn.ReadLine()
		require.ErrorIs(t, err, io.EOF)
	}
}

func TestTerminalConnRedrawsPendingInput(t *testing.T) {
	stream := &bufferStream{Reader: strings.NewReader("ab")}
	conn := newTerminalConn(stream, true)

	_, err := conn.ReadLine()
	require.NoError(t, err, "pending input is flushed as a final line at EOF")

	conn.buffer.Append('z')
	require.NoError(t, conn.WriteLine("x : hello"))
	require.Equal(t, "ab"+seqClearLine+"x : hello\r\nz", stream.String())

	plain := &bufferStream{Reader: strings.NewReader("")}
	require.NoError(t, newTerminalConn(plain, false).WriteLine("x : hello"))
	require.Equal(t, "x : hello\r\n", plain.String())
}
