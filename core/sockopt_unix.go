//go:build unix

package core

import (
	"net"

	"golang.org/x/sys/unix"
)

// setTCPNoDelay disables Nagle's algorithm on an accepted socket so
// small responses are not delayed waiting for coalescing.
func setTCPNoDelay(conn net.Conn) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}

	raw, err := tcpConn.SyscallConn()
	if err != nil {
		return err
	}

	var sockErr error
	if err := raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	}); err != nil {
		return err
	}
	return sockErr
}
