//go:build unix

package discovery

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// enableBroadcast allows the socket to send to broadcast addresses.
func enableBroadcast(network string, address string, c syscall.RawConn) error {
	var opErr error
	err := c.Control(func(fd uintptr) {
		opErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
	})
	if err != nil {
		return err
	}

	return opErr
}
