//go:build !windows

package client

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// probeIdle performs the non-blocking 2-byte read probe from spec.md
// §4.5's acquire algorithm: WouldBlock means the peer hasn't sent
// anything and the connection is still reusable; any bytes, EOF, or
// another error mean it must be discarded.
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
		_, rerr := unix.Read(int(fd), buf[:])
		alive = rerr == unix.EAGAIN || rerr == unix.EWOULDBLOCK
		return true
	})
	return alive
}
