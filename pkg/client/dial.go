package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/quic-go/quic-go"
	"golang.org/x/net/http2"

	"github.com/wrenfield/httpcore/pkg/httperr"
)

// streamConn is the minimal stream handle the pool keeps: enough to read,
// write, and close. Plain TCP/TLS connections satisfy it directly (they
// are also net.Conn, which probeIdle relies on); an h3 stream over
// quic-go satisfies it via a thin adapter.
type streamConn = io.ReadWriteCloser

// DialMode selects which transport the connector dials with, beyond the
// four protocols spec.md §4.5 names. Off by default: DialAuto reproduces
// the baseline plain TCP/TLS semantics unchanged.
type DialMode int

const (
	DialAuto DialMode = iota
	DialH2
	DialH3
)

func dial(ctx context.Context, key Key, connTimeout time.Duration, mode DialMode) (streamConn, error) {
	switch mode {
	case DialH3:
		return dialH3(ctx, key, connTimeout)
	default:
		return dialTCP(ctx, key, connTimeout, mode == DialH2)
	}
}

func dialTCP(ctx context.Context, key Key, connTimeout time.Duration, h2 bool) (streamConn, error) {
	dctx, cancel := context.WithTimeout(ctx, connTimeout)
	defer cancel()

	addr := fmt.Sprintf("%s:%d", key.Host, key.Port)
	var d net.Dialer
	nc, err := d.DialContext(dctx, "tcp", addr)
	if err != nil {
		if dctx.Err() != nil {
			return nil, httperr.NewConnectError(httperr.ConnectTimeout, err)
		}
		return nil, httperr.NewConnectError(httperr.IoError, err)
	}

	if !key.Secure {
		return nc, nil
	}

	nextProtos := []string{"http/1.1"}
	if h2 {
		nextProtos = []string{"h2", "http/1.1"}
	}
	tlsConn := tls.Client(nc, &tls.Config{ServerName: key.Host, NextProtos: nextProtos})
	tlsConn.SetDeadline(time.Now().Add(connTimeout))
	if err := tlsConn.HandshakeContext(dctx); err != nil {
		nc.Close()
		return nil, httperr.NewConnectError(httperr.SslError, err)
	}
	tlsConn.SetDeadline(time.Time{})

	if h2 && tlsConn.ConnectionState().NegotiatedProtocol == "h2" {
		t := &http2.Transport{}
		if _, err := t.NewClientConn(tlsConn); err != nil {
			tlsConn.Close()
			return nil, httperr.NewConnectError(httperr.Connector, err)
		}
	}

	return tlsConn, nil
}

func dialH3(ctx context.Context, key Key, connTimeout time.Duration) (streamConn, error) {
	dctx, cancel := context.WithTimeout(ctx, connTimeout)
	defer cancel()

	addr := fmt.Sprintf("%s:%d", key.Host, key.Port)
	qconn, err := quic.DialAddr(dctx, addr, &tls.Config{ServerName: key.Host, NextProtos: []string{"h3"}}, nil)
	if err != nil {
		if dctx.Err() != nil {
			return nil, httperr.NewConnectError(httperr.ConnectTimeout, err)
		}
		return nil, httperr.NewConnectError(httperr.IoError, err)
	}

	stream, err := qconn.OpenStreamSync(dctx)
	if err != nil {
		qconn.CloseWithError(0, "stream open failed")
		return nil, httperr.NewConnectError(httperr.Connector, err)
	}

	return &h3StreamConn{conn: qconn, stream: stream}, nil
}

// h3StreamConn adapts a quic-go stream plus its owning connection to the
// streamConn contract.
type h3StreamConn struct {
	conn   quic.Connection
	stream quic.Stream
}

func (c *h3StreamConn) Read(p []byte) (int, error)  { return c.stream.Read(p) }
func (c *h3StreamConn) Write(p []byte) (int, error) { return c.stream.Write(p) }
func (c *h3StreamConn) Close() error {
	c.stream.Close()
	return c.conn.CloseWithError(0, "")
}
