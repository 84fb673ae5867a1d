// Package middleware implements the middleware chain executor: the
// Middleware interface with start/response/finish phases, and the
// Pipeline state machine that drives a request through them with async
// short-circuit and symmetric skip semantics, following
// original_source/src/middleware/mod.rs.
package middleware

import (
	"github.com/wrenfield/httpcore/pkg/httplog"
	"github.com/wrenfield/httpcore/pkg/httprequest"
)

// StartedKind is the outcome of a middleware's start phase.
type StartedKind int

const (
	StartedDone StartedKind = iota
	StartedResponse
	StartedFuture
)

// Started is returned by Middleware.Start. Done advances to the next
// middleware. Response short-circuits: subsequent middlewares' Start,
// Response and Finish are all skipped, while Response and Finish run in
// reverse order over the middlewares up to and including the one that
// short-circuited. Future suspends until the channel yields a StartedResult
// with the same two outcomes.
type Started struct {
	Kind     StartedKind
	Response *httprequest.HttpResponse
	Future   <-chan StartedResult
}

// StartedResult is what a StartedFuture eventually resolves to. A nil
// Response (with nil Err) means Done.
type StartedResult struct {
	Response *httprequest.HttpResponse
	Err      error
}

// ResponseKind is the outcome of a middleware's response phase.
type ResponseKind int

const (
	ResponseDone ResponseKind = iota
	ResponseFuture
)

// MWResponse is returned by Middleware.Response.
type MWResponse struct {
	Kind     ResponseKind
	Response *httprequest.HttpResponse
	Future   <-chan ResponseResult
}

// ResponseResult is what a ResponseFuture eventually resolves to.
type ResponseResult struct {
	Response *httprequest.HttpResponse
	Err      error
}

// FinishedKind is the outcome of a middleware's finish phase.
type FinishedKind int

const (
	FinishedDone FinishedKind = iota
	FinishedFuture
)

// Finished is returned by Middleware.Finish. Finish-phase errors are
// logged, never propagated.
type Finished struct {
	Kind   FinishedKind
	Future <-chan error
}

// Middleware is an interceptor exposing start, response, and finish
// phases. Embed Base to get spec-compliant no-op defaults for phases a
// middleware doesn't care about.
type Middleware interface {
	Start(req *httprequest.HttpRequest) (Started, error)
	Response(req *httprequest.HttpRequest, resp *httprequest.HttpResponse) (MWResponse, error)
	Finish(req *httprequest.HttpRequest, resp *httprequest.HttpResponse) Finished
}

// Base supplies the default Started::Done / Response::Done / Finished::Done
// behavior so a middleware need only override the phases it uses.
type Base struct{}

func (Base) Start(req *httprequest.HttpRequest) (Started, error) {
	return Started{Kind: StartedDone}, nil
}

func (Base) Response(req *httprequest.HttpRequest, resp *httprequest.HttpResponse) (MWResponse, error) {
	return MWResponse{Kind: ResponseDone, Response: resp}, nil
}

func (Base) Finish(req *httprequest.HttpRequest, resp *httprequest.HttpResponse) Finished {
	return Finished{Kind: FinishedDone}
}

// Handler handles a matched request and produces a Reply. Structurally
// identical to router.HandlerFunc; kept separate to avoid an import cycle
// between middleware and router.
type Handler func(req *httprequest.HttpRequest) httprequest.Reply

// Pipeline is the per-request executor driving middlewares and the
// handler through None → Starting → Handler → RunMiddlewares → Response →
// Finishing → Completed.
type Pipeline struct {
	middlewares []Middleware
	handler     Handler
	logger      httplog.Logger
}

// New builds a Pipeline bound to a middleware list (in start order) and a
// handler. A nil logger discards finish-phase errors.
func New(middlewares []Middleware, handler Handler, logger httplog.Logger) *Pipeline {
	if logger == nil {
		logger = httplog.NoOp()
	}
	return &Pipeline{middlewares: middlewares, handler: handler, logger: logger}
}

// Run drives the full state machine for one request and returns its final
// response. At most one outstanding async operation is awaited at a time.
func (p *Pipeline) Run(req *httprequest.HttpRequest) *httprequest.HttpResponse {
	startedUpTo, shortCircuit := p.runStarting(req)

	var resp *httprequest.HttpResponse
	if shortCircuit != nil {
		resp = shortCircuit
	} else {
		resp = p.runHandler(req)
	}

	resp = p.runResponsePhase(req, resp, startedUpTo)
	p.runFinishPhase(req, resp, startedUpTo)
	return resp
}

// runStarting iterates middlewares in insertion order invoking Start.
// It returns the count of middlewares whose Start ran to completion
// (Done or short-circuited) — this is the prefix that Response and Finish
// must later run over, in reverse — and the short-circuit response, if any.
func (p *Pipeline) runStarting(req *httprequest.HttpRequest) (int, *httprequest.HttpResponse) {
	for i, mw := range p.middlewares {
		started, err := mw.Start(req)
		if err != nil {
			return i + 1, httprequest.ErrorToResponse(err)
		}
		switch started.Kind {
		case StartedDone:
			continue
		case StartedResponse:
			return i + 1, started.Response
		case StartedFuture:
			result := <-started.Future
			if result.Err != nil {
				return i + 1, httprequest.ErrorToResponse(result.Err)
			}
			if result.Response != nil {
				return i + 1, result.Response
			}
			continue
		}
	}
	return len(p.middlewares), nil
}

func (p *Pipeline) runHandler(req *httprequest.HttpRequest) *httprequest.HttpResponse {
	reply := p.handler(req)
	if reply.Err != nil {
		return httprequest.ErrorToResponse(reply.Err)
	}
	return reply.Response
}

// runResponsePhase invokes Response on every middleware whose Start
// completed (Done or short-circuit), in reverse order; each may replace
// the response.
func (p *Pipeline) runResponsePhase(req *httprequest.HttpRequest, resp *httprequest.HttpResponse, startedUpTo int) *httprequest.HttpResponse {
	for i := startedUpTo - 1; i >= 0; i-- {
		mwResp, err := p.middlewares[i].Response(req, resp)
		if err != nil {
			resp = httprequest.ErrorToResponse(err)
			continue
		}
		switch mwResp.Kind {
		case ResponseDone:
			resp = mwResp.Response
		case ResponseFuture:
			result := <-mwResp.Future
			if result.Err != nil {
				resp = httprequest.ErrorToResponse(result.Err)
			} else {
				resp = result.Response
			}
		}
	}
	return resp
}

// runFinishPhase invokes Finish on the same prefix, in reverse order,
// exactly once per request. Errors are logged, never propagated.
func (p *Pipeline) runFinishPhase(req *httprequest.HttpRequest, resp *httprequest.HttpResponse, startedUpTo int) {
	for i := startedUpTo - 1; i >= 0; i-- {
		fin := p.middlewares[i].Finish(req, resp)
		if fin.Kind == FinishedFuture {
			if err := <-fin.Future; err != nil {
				p.logger.WithError(err).Error("middleware finish phase failed", "index", i)
			}
		}
	}
}
