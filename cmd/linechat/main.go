package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/crypto/ssh"
	"golang.org/x/sync/errgroup"

	"github.com/ledzpl/linechat/internal/chat"
	"github.com/ledzpl/linechat/pkg/sshserver"
	"github.com/ledzpl/linechat/pkg/tcpserver"
	"github.com/ledzpl/linechat/pkg/wsserver"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	cfg, err := loadConfig(os.Args[1:], os.LookupEnv, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logger.Fatalf("invalid configuration: %v", err)
	}

	registry := chat.NewRegistry(chat.WithLogger(logger))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	tcp := tcpserver.New(cfg.Addr(), logger)
	tcp.ReusePort = cfg.ReusePort
	g.Go(func() error {
		return tcp.ListenAndServe(ctx, func(conn net.Conn) {
			chat.Serve(registry, chat.PeerID(conn.RemoteAddr()), chat.NewConn(conn, chat.WithWriteTimeout(cfg.WriteTimeout)))
		})
	})

	if cfg.SSHAddr != "" {
		signer, err := sshserver.LoadOrGenerateSigner(cfg.HostKeyPath)
		if err != nil {
			logger.Fatalf("failed to prepare host key: %v", err)
		}
		server := sshserver.New(cfg.SSHAddr, signer, logger)
		g.Go(func() error {
			return server.ListenAndServe(ctx, func(conn *ssh.ServerConn, channel ssh.Channel, requests <-chan *ssh.Request) {
				chat.HandleSSHSession(registry, conn, channel, requests)
			})
		})
	}

	if cfg.WSAddr != "" {
		server := wsserver.New(cfg.WSAddr, logger)
		server.WriteTimeout = cfg.WriteTimeout
		g.Go(func() error {
			return server.ListenAndServe(ctx, func(conn *wsserver.Conn) {
				chat.Serve(registry, conn.RemoteHost(), conn)
			})
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("server stopped with error: %v", err)
	}
}
