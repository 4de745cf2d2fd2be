package sshserver

import (
	"context"
	"errors"
	"log"
	"net"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/ledzpl/linechat/pkg/tcpserver"
)

const handshakeTimeout = 10 * time.Second

// SessionHandler handles an accepted SSH "session" channel.
type SessionHandler func(conn *ssh.ServerConn, channel ssh.Channel, requests <-chan *ssh.Request)

// Server speaks SSH on top of a tcpserver accept loop.
type Server struct {
	Addr   string
	Config *ssh.ServerConfig

	logger *log.Logger
	conns  sync.WaitGroup
}

// New creates a Server with the provided host signer. Clients are not authenticated.
func New(addr string, signer ssh.Signer, logger *log.Logger) *Server {
	cfg := &ssh.ServerConfig{
		NoClientAuth: true,
	}
	cfg.AddHostKey(signer)

	if logger == nil {
		logger = log.Default()
	}

	return &Server{
		Addr:   addr,
		Config: cfg,
		logger: logger,
	}
}

// ListenAndServe runs the SSH server until the context is cancelled or the listener fails.
// Connections still being served are waited for before it returns.
func (s *Server) ListenAndServe(ctx context.Context, handler SessionHandler) error {
	if handler == nil {
		return errors.New("sshserver: session handler required")
	}

	defer s.conns.Wait()

	return tcpserver.New(s.Addr, s.logger).ListenAndServe(ctx, func(conn net.Conn) {
		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConn(ctx, conn, handler)
		}()
	})
}

func (s *Server) handleConn(ctx context.Context, tcpConn net.Conn, handler SessionHandler) {
	defer tcpConn.Close()

	_ = tcpConn.SetDeadline(time.Now().Add(handshakeTimeout))
	sshConn, chans, reqs, err := ssh.NewServerConn(tcpConn, s.Config)
	if err != nil {
		s.logger.Printf("sshserver: handshake with %s failed: %v", tcpConn.RemoteAddr(), err)
		return
	}
	_ = tcpConn.SetDeadline(time.Time{})
	defer sshConn.Close()

	s.logger.Printf("sshserver: new connection from %s (%s)", sshConn.RemoteAddr(), sshConn.ClientVersion())

	go ssh.DiscardRequests(reqs)

	var channels sync.WaitGroup
	defer channels.Wait()

	for {
		select {
		case <-ctx.Done():
			sshConn.Close()
			return
		case newChannel, ok := <-chans:
			if !ok {
				return
			}
			if newChannel.ChannelType() != "session" {
				newChannel.Reject(ssh.UnknownChannelType, "only session channels are supported")
				continue
			}

			channel, requests, err := newChannel.Accept()
			if err != nil {
				s.logger.Printf("sshserver: channel accept failed: %v", err)
				continue
			}

			channels.Add(1)
			go func() {
				defer channels.Done()
				handler(sshConn, channel, requests)
			}()
		}
	}
}
