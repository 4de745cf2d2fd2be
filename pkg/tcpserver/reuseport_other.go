//go:build !(linux || darwin || dragonfly || freebsd || netbsd || openbsd)

package tcpserver

import (
	"errors"
	"syscall"
)

func reusePortControl(network, address string, c syscall.RawConn) error {
	return errors.New("tcpserver: SO_REUSEPORT is not supported on this platform")
}
