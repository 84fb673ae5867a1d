// Package client implements the HTTP client connector: a single-threaded
// actor serving Connect requests against a bounded, per-host-limited
// connection pool with keep-alive/lifetime eviction and a waiter queue,
// following original_source/src/client/connector.rs, plus the outbound
// SendRequest future from original_source/src/client/pipeline.rs.
package client

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/wrenfield/httpcore/pkg/httperr"
)

// Protocol is the scheme-derived dial protocol.
type Protocol int

const (
	ProtoHTTP Protocol = iota
	ProtoHTTPS
	ProtoWS
	ProtoWSS
)

func (p Protocol) IsSecure() bool {
	return p == ProtoHTTPS || p == ProtoWSS
}

func (p Protocol) DefaultPort() int {
	if p.IsSecure() {
		return 443
	}
	return 80
}

func protocolFromScheme(scheme string) (Protocol, bool) {
	switch strings.ToLower(scheme) {
	case "http":
		return ProtoHTTP, true
	case "https":
		return ProtoHTTPS, true
	case "ws":
		return ProtoWS, true
	case "wss":
		return ProtoWSS, true
	default:
		return 0, false
	}
}

// Key is the (host, port, secure-flag) equality class connections are
// pooled under.
type Key struct {
	Host   string
	Port   int
	Secure bool
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d(secure=%v)", k.Host, k.Port, k.Secure)
}

// ParseURI derives a Key and Protocol from a request URI. An invalid or
// missing scheme/host is InvalidUrl.
func ParseURI(uri string) (Key, Protocol, error) {
	u, err := url.Parse(uri)
	if err != nil || u.Host == "" {
		return Key{}, 0, httperr.NewConnectError(httperr.InvalidUrl, err)
	}
	proto, ok := protocolFromScheme(u.Scheme)
	if !ok {
		return Key{}, 0, httperr.NewConnectError(httperr.InvalidUrl, nil)
	}

	host := u.Hostname()
	if host == "" {
		return Key{}, 0, httperr.NewConnectError(httperr.InvalidUrl, nil)
	}

	port := proto.DefaultPort()
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Key{}, 0, httperr.NewConnectError(httperr.InvalidUrl, err)
		}
		port = n
	}

	return Key{Host: host, Port: port, Secure: proto.IsSecure()}, proto, nil
}
