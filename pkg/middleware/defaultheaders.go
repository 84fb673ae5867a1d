package middleware

import "github.com/wrenfield/httpcore/pkg/httprequest"

// DefaultHeaders sets a fixed set of response headers whenever they are
// absent, demonstrating the start/response/finish contract end to end.
// Grounded on original_source/src/middleware/defaultheaders.rs.
type DefaultHeaders struct {
	Base
	Headers     map[string]string
	ContentType string
}

// NewDefaultHeaders builds a DefaultHeaders middleware with an empty
// header set; use Header to add entries.
func NewDefaultHeaders() *DefaultHeaders {
	return &DefaultHeaders{Headers: make(map[string]string)}
}

// Header registers a header to apply when the response doesn't already
// set it.
func (d *DefaultHeaders) Header(key, value string) *DefaultHeaders {
	d.Headers[key] = value
	return d
}

func (d *DefaultHeaders) Response(req *httprequest.HttpRequest, resp *httprequest.HttpResponse) (MWResponse, error) {
	for k, v := range d.Headers {
		if resp.Header.Get(k) == "" {
			resp.Header.Set(k, v)
		}
	}
	if d.ContentType != "" && resp.Header.Get("Content-Type") == "" {
		resp.Header.Set("Content-Type", d.ContentType)
	}
	return MWResponse{Kind: ResponseDone, Response: resp}, nil
}
