// Package httprequest carries the request/response handles that flow
// through the router, the middleware pipeline, and the handler. It
// generalizes the teacher's request.go/response.go/cookie.go away from the
// tenant/session/i18n-laden application Context down to what the router
// and pipeline core actually need.
package httprequest

import (
	"net/http"
	"net/url"
	"time"
)

// HttpRequest is a handle to a request head: method, URI, headers,
// extensions, the Params map filled during routing, a resource index, and
// a shared application-state pointer. It is clone-cheap: heavy content
// (body) lives behind a pointer, and it is mutated only during the routing
// phase (Params, ResourceIdx) before becoming read-only.
type HttpRequest struct {
	Method     string
	URL        *url.URL
	Proto      string
	Header     http.Header
	Host       string
	RemoteAddr string
	ID         string
	StartTime  time.Time

	// Params holds route-captured values, populated during recognition.
	Params map[string]string

	// ResourceIdx is the index of the matched pattern within the router's
	// pattern list, or -1 if unmatched.
	ResourceIdx int

	// State is the application's shared state value, bound at dispatch time.
	State interface{}

	// Extensions carries arbitrary per-request values set by middleware.
	Extensions map[string]interface{}

	Body []byte
}

// New creates a request head with an empty Params map and ResourceIdx -1.
func New(method string, u *url.URL, header http.Header) *HttpRequest {
	return &HttpRequest{
		Method:      method,
		URL:         u,
		Header:      header,
		Params:      make(map[string]string),
		ResourceIdx: -1,
		Extensions:  make(map[string]interface{}),
		StartTime:   time.Now(),
	}
}

// Param returns a route parameter, or "" if absent.
func (r *HttpRequest) Param(name string) string {
	return r.Params[name]
}

// Set stores an extension value under key.
func (r *HttpRequest) Set(key string, value interface{}) {
	r.Extensions[key] = value
}

// Get retrieves an extension value.
func (r *HttpRequest) Get(key string) (interface{}, bool) {
	v, ok := r.Extensions[key]
	return v, ok
}

// HttpResponse is the result a handler or middleware produces.
type HttpResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// NewResponse builds a response with an initialized header map.
func NewResponse(status int) *HttpResponse {
	return &HttpResponse{StatusCode: status, Header: make(http.Header)}
}

// Reply is what a handler returns: either an immediate response or an
// error, which the pipeline converts to a response via ResponseError.
type Reply struct {
	Response *HttpResponse
	Err      error
}

// ResponseError converts an arbitrary error into an HTTP response. Types
// that want a specific status code and body implement this; anything else
// becomes a 500.
type ResponseError interface {
	error
	ErrorResponse() *HttpResponse
}

// ErrorToResponse applies the error-response capability described in
// spec §7: any Error is converted to an HTTP response at the boundary of
// the pipeline.
func ErrorToResponse(err error) *HttpResponse {
	if re, ok := err.(ResponseError); ok {
		return re.ErrorResponse()
	}
	resp := NewResponse(http.StatusInternalServerError)
	resp.Body = []byte(err.Error())
	return resp
}
