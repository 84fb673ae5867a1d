// Outbound request pipeline: SendRequest drives New → Connect →
// Connection → Send per spec.md §4.6, consuming the request writer and
// response parser behind the Writer/Parser interfaces spec.md §1 names
// as external collaborators (the HTTP wire format itself is a non-goal).
package client

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wrenfield/httpcore/pkg/httperr"
	"github.com/wrenfield/httpcore/pkg/middleware"
)

// ClientRequest is what a caller builds before calling SendRequest: a
// method, target URI, headers, and an optional body source.
type ClientRequest struct {
	Method             string
	URI                string
	Header             http.Header
	Body               middleware.BodySource
	ResponseDecompress bool

	WaitTime    time.Duration // default 5s
	ConnTimeout time.Duration // default 1s
	Timeout     time.Duration // overall request timeout, default 5s
}

// ClientResponse is the parsed response head plus a lazily-decompressed
// body reader bound to the leased connection.
type ClientResponse struct {
	StatusCode int
	Header     http.Header
	body       io.Reader
	conn       *Connection
}

// Body returns the (possibly decompressed) response body. Reading it to
// EOF releases the connection back to the pool; closing early (without
// reading to EOF) closes the connection instead, per spec.md §4.6.
func (r *ClientResponse) Body() io.ReadCloser {
	return &responseBody{resp: r}
}

type responseBody struct {
	resp *ClientResponse
	done bool
}

func (b *responseBody) Read(p []byte) (int, error) {
	n, err := b.resp.body.Read(p)
	if err == io.EOF && !b.done {
		b.done = true
		b.resp.conn.Release()
	}
	return n, err
}

func (b *responseBody) Close() error {
	if !b.done {
		b.done = true
		b.resp.conn.Close()
	}
	return nil
}

// Writer writes a ClientRequest's head onto a connection's stream; the
// body, if any, is streamed afterward by SendRequest from req.Body. A
// concrete HTTP/1 or HTTP/2 implementation lives outside this package per
// spec.md §1.
type Writer interface {
	WriteHead(w io.Writer, req *ClientRequest) error
}

// Parser parses a response head from a connection's stream. A concrete
// HTTP wire parser lives outside this package per spec.md §1.
type Parser interface {
	ParseHead(r io.Reader) (status int, header http.Header, err error)
}

// PayloadStream is a decoded body stream, the interface body-compression
// codecs are consumed behind per spec.md §1's non-goals.
type PayloadStream interface {
	io.ReadCloser
}

// DecompressorFactory builds a PayloadStream over an encoded body reader
// for one Content-Encoding value.
type DecompressorFactory func(io.Reader) (PayloadStream, error)

// defaultDecompressors covers gzip and deflate with the standard library,
// the same pair arkd0ng-go-utils/websvrutil's Compression middleware
// exercises on the server side.
var defaultDecompressors = map[string]DecompressorFactory{
	"gzip": func(r io.Reader) (PayloadStream, error) { return gzip.NewReader(r) },
	"deflate": func(r io.Reader) (PayloadStream, error) {
		return flate.NewReader(r), nil
	},
}

// SendRequest drives one outbound request through the connector: resolve
// and lease a Connection, write the request head and body, parse the
// response head, and install a decompressor if requested. The overall
// request timeout (default 5s) bounds the whole call independently of
// connTimeout: it bounds acquiring the connection and, on streams that
// support SetDeadline (TCP and TLS connections), writing the request and
// parsing the response head. A deadline hit while writing or parsing is
// reported as the SendIo or ParseError of that step.
func SendRequest(ctx context.Context, connector *Connector, w Writer, p Parser, req *ClientRequest) (*ClientResponse, error) {
	if req.WaitTime == 0 {
		req.WaitTime = 5 * time.Second
	}
	if req.ConnTimeout == 0 {
		req.ConnTimeout = 1 * time.Second
	}
	if req.Timeout == 0 {
		req.Timeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	conn, err := connector.Connect(ctx, req.URI, req.WaitTime, req.ConnTimeout)
	if err != nil {
		if ce, ok := err.(*httperr.ConnectError); ok {
			return nil, httperr.FromConnectError(ce)
		}
		return nil, httperr.NewSendError(httperr.SendConnector, err)
	}

	stream := conn.Stream()
	deadliner, canDeadline := stream.(interface{ SetDeadline(time.Time) error })
	if deadline, ok := ctx.Deadline(); ok && canDeadline {
		_ = deadliner.SetDeadline(deadline)
	}

	if err := w.WriteHead(stream, req); err != nil {
		conn.Close()
		return nil, httperr.NewSendError(httperr.SendIo, err)
	}

	if req.Body != nil {
		if err := streamRequestBody(stream, req.Body); err != nil {
			conn.Close()
			return nil, httperr.NewSendError(httperr.SendIo, err)
		}
	}

	status, header, err := p.ParseHead(stream)
	if err != nil {
		conn.Close()
		return nil, httperr.NewSendError(httperr.ParseError, err)
	}
	if canDeadline {
		_ = deadliner.SetDeadline(time.Time{})
	}

	resp := &ClientResponse{StatusCode: status, Header: header, conn: conn, body: stream}

	if req.ResponseDecompress {
		enc := strings.ToLower(strings.TrimSpace(header.Get("Content-Encoding")))
		if enc != "" && enc != "identity" && enc != "auto" {
			factory, ok := defaultDecompressors[enc]
			if !ok {
				conn.Close()
				return nil, httperr.NewSendError(httperr.ParseError, errUnknownEncoding(enc))
			}
			dec, err := factory(stream)
			if err != nil {
				conn.Close()
				return nil, httperr.NewSendError(httperr.SendIo, err)
			}
			resp.body = dec
		}
	}

	return resp, nil
}

type errUnknownEncoding string

func (e errUnknownEncoding) Error() string { return "unknown content-encoding: " + string(e) }

// requestBodyWriter adapts a plain io.Writer to middleware.BodyWriter:
// writes never pause or disconnect, since the underlying stream is a
// blocking net.Conn/quic stream, not an async writer with its own
// backpressure signal.
type requestBodyWriter struct{ w io.Writer }

func (r requestBodyWriter) Write(chunk []byte) (middleware.WriterStatus, error) {
	if _, err := r.w.Write(chunk); err != nil {
		return middleware.WriterDisconnected, err
	}
	return middleware.WriterReady, nil
}

func (r requestBodyWriter) Ready() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func streamRequestBody(w io.Writer, src middleware.BodySource) error {
	return middleware.StreamBody(requestBodyWriter{w: w}, src)
}

// BytesBody is a middleware.BodySource over an in-memory byte slice, the
// common case for small request bodies.
type BytesBody struct {
	r *bytes.Reader
}

// NewBytesBody wraps a byte slice as a one-shot BodySource.
func NewBytesBody(b []byte) *BytesBody { return &BytesBody{r: bytes.NewReader(b)} }

func (b *BytesBody) Next() (chunk []byte, eof bool, err error) {
	if b.r.Len() == 0 {
		return nil, true, nil
	}
	buf := make([]byte, b.r.Len())
	n, err := b.r.Read(buf)
	if err != nil && err != io.EOF {
		return nil, false, err
	}
	return buf[:n], false, nil
}

func (b *BytesBody) Disconnect() {}
