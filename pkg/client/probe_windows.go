//go:build windows

package client

import (
	"net"
	"syscall"

	"golang.org/x/sys/windows"
)

// probeIdle mirrors probe_unix.go's non-blocking liveness probe using the
// windows package's raw Recv.
func probeIdle(rc streamConn) bool {
	nc, ok := rc.(net.Conn)
	if !ok {
		return true
	}
	sc, ok := nc.(syscall.Conn)
	if !ok {
		return true
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return true
	}

	alive := true
	var buf [2]byte
	_ = raw.Read(func(fd uintptr) bool {
		_, rerr := windows.Recv(windows.Handle(fd), buf[:], windows.MSG_PEEK)
		alive = rerr == windows.WSAEWOULDBLOCK
		return true
	})
	return alive
}
