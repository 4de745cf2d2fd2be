package wsserver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ledzpl/linechat/pkg/tcpserver"
)

// DefaultPath is where the upgrade endpoint is mounted.
const DefaultPath = "/ws"

// SessionHandler onboards an upgraded connection. It must not block.
type SessionHandler func(conn *Conn)

// Server exposes the line protocol over WebSocket.
type Server struct {
	Addr         string
	Path         string
	WriteTimeout time.Duration

	logger   *log.Logger
	upgrader websocket.Upgrader
}

// New creates a Server listening on addr.
func New(addr string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		Addr:         addr,
		Path:         DefaultPath,
		WriteTimeout: 10 * time.Second,
		logger:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP handler that upgrades requests and passes them to handler.
func (s *Server) Handler(handler SessionHandler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.Path, func(w http.ResponseWriter, r *http.Request) {
		ws, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Printf("wsserver: upgrade from %s failed: %v", r.RemoteAddr, err)
			return
		}
		handler(NewConn(ws, s.WriteTimeout))
	})
	return mux
}

// ListenAndServe runs the HTTP server until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, handler SessionHandler) error {
	if handler == nil {
		return errors.New("wsserver: session handler required")
	}

	listener, err := tcpserver.New(s.Addr, s.logger).Listen(ctx)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Printf("wsserver: shutdown error: %v", err)
		}
	}()

	s.logger.Printf("wsserver: listening on %s%s", listener.Addr(), s.Path)

	if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("wsserver: serve: %w", err)
	}
	return ctx.Err()
}
