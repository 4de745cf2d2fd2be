package wsserver

import (
	"context"
	"io"
	"log"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dialTest(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + DefaultPath
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return ws
}

func TestConnCarriesOneLinePerFrame(t *testing.T) {
	srv := New("127.0.0.1:0", log.New(io.Discard, "", 0))

	reads := make(chan string, 4)
	ended := make(chan error, 1)
	hosts := make(chan string, 1)
	ts := httptest.NewServer(srv.Handler(func(conn *Conn) {
		hosts <- conn.RemoteHost()
		go func() {
			for {
				line, err := conn.ReadLine()
				if err != nil {
					ended <- err
					return
				}
				reads <- line
				if err := conn.WriteLine("echo: " + line); err != nil {
					ended <- err
					return
				}
			}
		}()
	}))
	defer ts.Close()

	client := dialTest(t, ts)
	defer client.Close()
	require.Equal(t, "127.0.0.1", <-hosts)

	require.NoError(t, client.WriteMessage(websocket.BinaryMessage, []byte("skipped")))
	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte("hello\r\n")))

	select {
	case line := <-reads:
		require.Equal(t, "hello", line)
	case <-time.After(time.Second):
		t.Fatal("server did not read the line")
	}

	kind, data, err := client.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, kind)
	require.Equal(t, "echo: hello", string(data))

	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	require.NoError(t, client.WriteMessage(websocket.CloseMessage, closeMsg))

	select {
	case err := <-ended:
		require.ErrorIs(t, err, io.EOF)
	case <-time.After(time.Second):
		t.Fatal("server did not see the close")
	}
}

func TestConnCloseSendsCloseFrame(t *testing.T) {
	srv := New("127.0.0.1:0", log.New(io.Discard, "", 0))
	ts := httptest.NewServer(srv.Handler(func(conn *Conn) {
		_ = conn.WriteLine("bye")
		_ = conn.Close()
		_ = conn.Close()
	}))
	defer ts.Close()

	client := dialTest(t, ts)
	defer client.Close()

	_, data, err := client.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, "bye", string(data))

	_, _, err = client.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	reserved, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := reserved.Addr().String()
	require.NoError(t, reserved.Close())

	srv := New(addr, log.New(io.Discard, "", 0))
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() {
		served <- srv.ListenAndServe(ctx, func(conn *Conn) {
			conn.Close()
		})
	}()

	var ws *websocket.Conn
	require.Eventually(t, func() bool {
		ws, _, err = websocket.DefaultDialer.Dial("ws://"+addr+DefaultPath, nil)
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	ws.Close()

	cancel()
	select {
	case err := <-served:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(6 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestListenAndServeRequiresHandler(t *testing.T) {
	srv := New("127.0.0.1:0", log.New(io.Discard, "", 0))
	require.Error(t, srv.ListenAndServe(context.Background(), nil))
}

func TestSplitLines(t *testing.T) {
	cases := map[string][]string{
		"":                 {""},
		"hello":            {"hello"},
		"hello\n":          {"hello"},
		"a\nb":             {"a", "b"},
		"a\r\nb\rc\n":      {"a", "b", "c"},
		"a\n\nb":           {"a", "", "b"},
		"hi\nmallory left": {"hi", "mallory left"},
	}
	for in, want := range cases {
		require.Equal(t, want, splitLines(in), "input %q", in)
	}
}

func TestConnSplitsMultiLineFrames(t *testing.T) {
	srv := New("127.0.0.1:0", log.New(io.Discard, "", 0))

	reads := make(chan string, 8)
	ts := httptest.NewServer(srv.Handler(func(conn *Conn) {
		go func() {
			for {
				line, err := conn.ReadLine()
				if err != nil {
					close(reads)
					return
				}
				reads <- line
			}
		}()
	}))
	defer ts.Close()

	client := dialTest(t, ts)
	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte("one\r\ntwo\nthree")))
	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte("four")))
	require.NoError(t, client.Close())

	var got []string
	for line := range reads {
		got = append(got, line)
	}
	require.Equal(t, []string{"one", "two", "three", "four"}, got)
}
