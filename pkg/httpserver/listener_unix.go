//go:build unix || linux || darwin || freebsd || netbsd || openbsd || dragonfly || aix

package httpserver

import (
	"context"
	"fmt"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

func createPlatformListener(config ListenerConfig) (net.Listener, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var ctlErr error
			c.Control(func(fd uintptr) {
				if config.ReuseAddr {
					if e := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); e != nil {
						ctlErr = fmt.Errorf("httpserver: SO_REUSEADDR: %w", e)
						return
					}
				}
				if config.ReusePort && supportsReusePort() {
					if e := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); e != nil {
						ctlErr = fmt.Errorf("httpserver: SO_REUSEPORT: %w", e)
						return
					}
				}
				if config.ReadBuffer > 0 {
					if e := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, config.ReadBuffer); e != nil {
						ctlErr = fmt.Errorf("httpserver: SO_RCVBUF: %w", e)
						return
					}
				}
				if config.WriteBuffer > 0 {
					if e := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, config.WriteBuffer); e != nil {
						ctlErr = fmt.Errorf("httpserver: SO_SNDBUF: %w", e)
						return
					}
				}
			})
			return ctlErr
		},
	}
	return lc.Listen(context.Background(), config.Network, config.Address)
}
