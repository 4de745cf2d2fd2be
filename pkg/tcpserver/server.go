package tcpserver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"time"
)

var (
	// ErrBind reports that the listening socket could not be bound. It is fatal for the caller.
	ErrBind = errors.New("tcpserver: bind failed")

	// ErrListenerClosed reports that the listening socket stopped working outside of shutdown.
	ErrListenerClosed = errors.New("tcpserver: listener closed")
)

const maxAcceptBackoff = time.Second

// ConnHandler onboards an accepted connection. It runs on the accept loop and must not block.
type ConnHandler func(conn net.Conn)

// Server wraps the TCP listener lifecycle.
type Server struct {
	Addr string
	// ReusePort lets several processes bind the same address where the platform supports it.
	ReusePort bool

	logger *log.Logger
}

// New creates a Server for addr.
func New(addr string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		Addr:   addr,
		logger: logger,
	}
}

// Listen binds the configured address.
func (s *Server) Listen(ctx context.Context) (net.Listener, error) {
	lc := net.ListenConfig{}
	if s.ReusePort {
		lc.Control = reusePortControl
	}

	listener, err := lc.Listen(ctx, "tcp", s.Addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrBind, s.Addr, err)
	}
	return listener, nil
}

// ListenAndServe binds the address and accepts connections until the context is
// cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context, handler ConnHandler) error {
	listener, err := s.Listen(ctx)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener, handler)
}

// Serve accepts connections on listener and hands each one to handler. Accept errors
// are logged and retried; the loop ends when ctx is cancelled (returning ctx.Err())
// or when the listener itself is closed (returning ErrListenerClosed).
func (s *Server) Serve(ctx context.Context, listener net.Listener, handler ConnHandler) error {
	if handler == nil {
		return errors.New("tcpserver: connection handler required")
	}
	defer listener.Close()

	shutdown := make(chan struct{})
	defer close(shutdown)

	go func() {
		select {
		case <-ctx.Done():
			if err := listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
				s.logger.Printf("tcpserver: listener close error: %v", err)
			}
		case <-shutdown:
		}
	}()

	s.logger.Printf("tcpserver: listening on %s", listener.Addr())

	var backoff time.Duration
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("%w: %w", ErrListenerClosed, err)
			}

			backoff = nextBackoff(backoff)
			s.logger.Printf("tcpserver: accept error: %v; retrying in %v", err, backoff)
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		handler(conn)
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	if d *= 2; d > maxAcceptBackoff {
		return maxAcceptBackoff
	}
	return d
}
