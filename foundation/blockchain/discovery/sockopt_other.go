//go:build !unix

package discovery

import "syscall"

// enableBroadcast is a no-op where the socket option is not available.
func enableBroadcast(network string, address string, c syscall.RawConn) error {
	return nil
}
