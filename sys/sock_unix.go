//go:build unix

package sys

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// ListenConfig returns a listen config that allows the node to rebind its address right after a restart
func ListenConfig() *net.ListenConfig {
	return &net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var opErr error
			err := c.Control(func(fd uintptr) {
				opErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return opErr
		},
	}
}
