//go:build windows

package httpserver

import (
	"context"
	"fmt"
	"net"
	"syscall"
)

func createPlatformListener(config ListenerConfig) (net.Listener, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var ctlErr error
			c.Control(func(fd uintptr) {
				if config.ReuseAddr {
					if e := syscall.SetsockoptInt(syscall.Handle(fd), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1); e != nil {
						ctlErr = fmt.Errorf("httpserver: SO_REUSEADDR: %w", e)
						return
					}
				}
				// Windows has no SO_REUSEPORT; SO_REUSEADDR covers the common case.
				if config.ReadBuffer > 0 {
					if e := syscall.SetsockoptInt(syscall.Handle(fd), syscall.SOL_SOCKET, syscall.SO_RCVBUF, config.ReadBuffer); e != nil {
						ctlErr = fmt.Errorf("httpserver: SO_RCVBUF: %w", e)
						return
					}
				}
				if config.WriteBuffer > 0 {
					if e := syscall.SetsockoptInt(syscall.Handle(fd), syscall.SOL_SOCKET, syscall.SO_SNDBUF, config.WriteBuffer); e != nil {
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
