package chat

import (
	"errors"
	"sync"

	"golang.org/x/crypto/ssh"
)

// errShellNotRequested indicates the SSH client closed the request stream without asking for a shell.
var errShellNotRequested = errors.New("shell request not received before channel closed")

// HandleSSHSession serves an SSH "session" channel as a terminal line connection and blocks
// until the session has been torn down.
func HandleSSHSession(registry *Registry, conn *ssh.ServerConn, channel ssh.Channel, requests <-chan *ssh.Request) {
	var pump sync.WaitGroup
	defer pump.Wait()
	defer channel.Close()

	pty, err := awaitShell(requests, &pump)
	if err != nil {
		registry.logger.Printf("chat: ssh %s: %v", conn.RemoteAddr(), err)
		return
	}

	s := Serve(registry, sshID(conn), newTerminalConn(channel, pty))
	<-s.Done()
}

// awaitShell drains channel requests until the client asks for a shell, then keeps
// answering the remaining requests in the background. It reports whether a pty was granted.
func awaitShell(requests <-chan *ssh.Request, pump *sync.WaitGroup) (pty bool, err error) {
	for req := range requests {
		if req.Type == "pty-req" {
			pty = true
		}
		if !replySSHRequest(req) {
			continue
		}

		pump.Add(1)
		go func() {
			defer pump.Done()
			for req := range requests {
				replySSHRequest(req)
			}
		}()
		return pty, nil
	}
	return false, errShellNotRequested
}

func replySSHRequest(req *ssh.Request) bool {
	switch req.Type {
	case "shell":
		req.Reply(true, nil)
		return true
	case "pty-req", "env", "window-change", "signal":
		req.Reply(true, nil)
	default:
		req.Reply(false, nil)
	}
	return false
}

func sshID(conn *ssh.ServerConn) string {
	host := PeerID(conn.RemoteAddr())
	if user := conn.User(); user != "" {
		return user + "@" + host
	}
	return host
}
