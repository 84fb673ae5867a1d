package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/wrenfield/httpcore/pkg/app"
	"github.com/wrenfield/httpcore/pkg/httplog"
	"github.com/wrenfield/httpcore/pkg/httprequest"
	"github.com/wrenfield/httpcore/pkg/middleware"
)

// Server adapts net/http's Handler contract (the HTTP/1/2 wire parser
// this core treats as an external collaborator, per spec.md §1) to the
// application dispatcher and middleware pipeline. Each request runs
// through its own Pipeline on the goroutine net/http serves it on;
// ServeHTTP does not serialize concurrent requests.
type Server struct {
	app    *app.Application
	logger httplog.Logger

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// RequestIDGenerator assigns req.ID for each inbound request. Defaults
	// to uuid.NewString; set to httplog.NewRequestID to use the
	// sha3-backed 16-hex-character generator instead.
	RequestIDGenerator func() string
}

// New builds a Server over a finished Application.
func New(a *app.Application, logger httplog.Logger) *Server {
	if logger == nil {
		logger = httplog.NoOp()
	}
	return &Server{
		app:                a,
		logger:             logger,
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       30 * time.Second,
		IdleTimeout:        120 * time.Second,
		RequestIDGenerator: uuid.NewString,
	}
}

// HTTPServer builds a *http.Server bound to this Server's ServeHTTP and
// the configured timeouts, ready for (*http.Server).Serve(listener).
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}
}

// ServeHTTP implements spec.md §2's data flow: inbound request →
// application dispatch → router recognition → middleware pre-phase →
// handler → middleware post-phase → writer → middleware finish-phase.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := s.toHttpRequest(r)

	ht, handled := s.app.Dispatch(req)
	if !handled {
		http.NotFound(w, r)
		return
	}

	handlerFn, ok := s.app.Handle(ht, req)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	reqLogger := s.logger.WithRequestID(req.ID)
	pipeline := middleware.New(s.app.Middlewares(), middleware.Handler(handlerFn), reqLogger)
	resp := pipeline.Run(req)
	writeResponse(w, resp)
}

func (s *Server) toHttpRequest(r *http.Request) *httprequest.HttpRequest {
	req := httprequest.New(r.Method, r.URL, r.Header)
	req.Proto = r.Proto
	req.Host = r.Host
	req.RemoteAddr = r.RemoteAddr
	gen := s.RequestIDGenerator
	if gen == nil {
		gen = uuid.NewString
	}
	req.ID = gen()
	req.Set("http.request", r)
	req.Set("http.context", r.Context())
	return req
}

func writeResponse(w http.ResponseWriter, resp *httprequest.HttpResponse) {
	if resp == nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	header := w.Header()
	for k, vs := range resp.Header {
		for _, v := range vs {
			header.Add(k, v)
		}
	}
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(resp.Body) > 0 {
		_, _ = w.Write(resp.Body)
	}
}

// RequestFromContext retrieves the underlying *http.Request a handler can
// use to reach request-scoped cancellation, matching r.Context() for
// handlers that need it directly.
func RequestFromContext(req *httprequest.HttpRequest) (*http.Request, context.Context, bool) {
	hr, ok := req.Get("http.request")
	if !ok {
		return nil, nil, false
	}
	ctx, _ := req.Get("http.context")
	r, _ := hr.(*http.Request)
	c, _ := ctx.(context.Context)
	return r, c, r != nil
}
