package receiver

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// sockopts returns a ListenConfig control hook that sets SO_REUSEADDR
// and SO_REUSEPORT (so multiple receivers can bind the same port and let
// the kernel load-balance datagrams across them) and, when rcvbuf > 0,
// grows the socket receive buffer.
func sockopts(rcvbuf int) func(network, address string, c syscall.RawConn) error {
	return func(_, _ string, c syscall.RawConn) error {
		var serr error
		err := c.Control(func(fd uintptr) {
			serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			if serr != nil {
				return
			}
			serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			if serr != nil {
				return
			}
			if rcvbuf > 0 {
				serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, rcvbuf)
			}
		})
		if err != nil {
			return err
		}
		return serr
	}
}
