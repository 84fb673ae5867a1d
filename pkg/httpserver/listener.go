// Package httpserver wires the application dispatcher and the middleware
// pipeline into a runnable worker, following
// the teacher's pkg/listener.go / pkg/server.go / pkg/server_impl.go —
// stripped of prefork/process-supervision, a non-goal per spec.md §1
// ("the core runs inside one worker").
package httpserver

import (
	"fmt"
	"net"
	"runtime"
)

// ListenerConfig configures a platform listener's socket options.
type ListenerConfig struct {
	Network string // default "tcp"
	Address string

	ReuseAddr bool
	ReusePort bool

	ReadBuffer  int
	WriteBuffer int
}

// CreateListener opens a platform-specific listener with the requested
// socket options.
func CreateListener(config ListenerConfig) (net.Listener, error) {
	if config.Network == "" {
		config.Network = "tcp"
	}
	if config.Address == "" {
		return nil, fmt.Errorf("httpserver: address is required")
	}
	return createPlatformListener(config)
}

// PlatformInfo reports what socket options this OS/arch supports.
type PlatformInfo struct {
	OS                string
	Arch              string
	NumCPU            int
	SupportsReusePort bool
}

func GetPlatformInfo() PlatformInfo {
	return PlatformInfo{
		OS:                runtime.GOOS,
		Arch:              runtime.GOARCH,
		NumCPU:            runtime.NumCPU(),
		SupportsReusePort: supportsReusePort(),
	}
}

func supportsReusePort() bool {
	switch runtime.GOOS {
	case "linux", "darwin", "freebsd", "netbsd", "openbsd", "dragonfly":
		return true
	default:
		return false
	}
}
