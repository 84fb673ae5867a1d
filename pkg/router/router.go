// Package router implements the resource handler (a method-predicated
// route table for one URL pattern) and the router (an ordered table of
// patterns with prefix stripping and named URL generation), following
// original_source/src/router.rs.
package router

import (
	"net/url"
	"strings"

	"github.com/wrenfield/httpcore/pkg/httperr"
	"github.com/wrenfield/httpcore/pkg/httprequest"
	"github.com/wrenfield/httpcore/pkg/pattern"
)

// HandlerFunc handles a matched request and produces a Reply.
type HandlerFunc func(req *httprequest.HttpRequest) httprequest.Reply

// Predicate is a total boolean function over the request: method equality,
// header presence, etc.
type Predicate func(req *httprequest.HttpRequest) bool

type route struct {
	predicate Predicate
	handler   HandlerFunc
}

// Resource owns a sequence of (predicate, handler) routes, resolved
// first-match-wins in insertion order, plus a default route used when no
// predicate matches.
type Resource struct {
	routes  []route
	def     HandlerFunc
	hasDef  bool
}

// NewResource returns an empty resource handler.
func NewResource() *Resource {
	return &Resource{}
}

// Method registers a route predicated on exact HTTP method equality.
func (r *Resource) Method(method string, handler HandlerFunc) *Resource {
	return r.Route(func(req *httprequest.HttpRequest) bool {
		return req.Method == method
	}, handler)
}

func (r *Resource) GET(h HandlerFunc) *Resource     { return r.Method("GET", h) }
func (r *Resource) POST(h HandlerFunc) *Resource    { return r.Method("POST", h) }
func (r *Resource) PUT(h HandlerFunc) *Resource     { return r.Method("PUT", h) }
func (r *Resource) DELETE(h HandlerFunc) *Resource  { return r.Method("DELETE", h) }
func (r *Resource) PATCH(h HandlerFunc) *Resource   { return r.Method("PATCH", h) }
func (r *Resource) HEAD(h HandlerFunc) *Resource    { return r.Method("HEAD", h) }
func (r *Resource) OPTIONS(h HandlerFunc) *Resource { return r.Method("OPTIONS", h) }

// Route registers an arbitrary predicate/handler pair.
func (r *Resource) Route(p Predicate, handler HandlerFunc) *Resource {
	r.routes = append(r.routes, route{predicate: p, handler: handler})
	return r
}

// Default sets the fallback handler used when no route's predicate matches.
func (r *Resource) Default(handler HandlerFunc) *Resource {
	r.def = handler
	r.hasDef = true
	return r
}

// Dispatch resolves the first route whose predicate matches req, falling
// back to the default route. ok is false only when neither matches.
func (r *Resource) Dispatch(req *httprequest.HttpRequest) (HandlerFunc, bool) {
	for _, rt := range r.routes {
		if rt.predicate(req) {
			return rt.handler, true
		}
	}
	if r.hasDef {
		return r.def, true
	}
	return nil, false
}

// ServerSettings is carried on the Router per spec.md §3's data model.
type ServerSettings struct {
	LocalAddr string
	Host      string
	TLS       bool
	Workers   int
}

// Entry pairs a compiled pattern with its resource handler. A nil Resource
// marks an external, URL-generation-only pattern.
type Entry struct {
	Pattern  *pattern.Pattern
	Resource *Resource
}

// Router is reference-counted, clone-cheap: holds a prefix, its byte
// length, an ordered list of patterns, a by-name index (including external
// patterns), and server settings.
type Router struct {
	Prefix    string
	prefixLen int
	entries   []Entry
	byName    map[string]*pattern.Pattern
	Settings  ServerSettings
}

// New builds a Router from a prefix and an ordered list of entries.
// Entries whose Resource is nil participate only in URLFor.
func New(prefix string, settings ServerSettings, entries []Entry) *Router {
	byName := make(map[string]*pattern.Pattern)
	for _, e := range entries {
		if e.Pattern.Name != "" {
			byName[e.Pattern.Name] = e.Pattern
		}
	}
	return &Router{
		Prefix:    prefix,
		prefixLen: len(prefix),
		entries:   entries,
		byName:    byName,
		Settings:  settings,
	}
}

// Recognize percent-decodes the request path slice following the prefix
// (after verifying the prefix fits) and linearly scans patterns, returning
// the lowest index whose MatchWithParams succeeds. ok is false if no
// pattern matches or the path does not fit under the prefix.
func (rt *Router) Recognize(path string) (idx int, params map[string]string, ok bool) {
	rest, fits := rt.stripPrefix(path)
	if !fits {
		return 0, nil, false
	}
	decoded, err := url.PathUnescape(rest)
	if err != nil {
		decoded = rest
	}
	if decoded == "" {
		decoded = "/"
	}
	params = make(map[string]string)
	for i, e := range rt.entries {
		if e.Resource == nil {
			continue
		}
		if e.Pattern.MatchWithParams(decoded, params) {
			return i, params, true
		}
	}
	return 0, nil, false
}

// HasRoute is the prefix-less variant of Recognize, for programmatic
// queries against an already-stripped path.
func (rt *Router) HasRoute(path string) bool {
	for _, e := range rt.entries {
		if e.Resource == nil {
			continue
		}
		if e.Pattern.IsMatch(path) {
			return true
		}
	}
	return false
}

func (rt *Router) stripPrefix(path string) (string, bool) {
	if len(path) < rt.prefixLen || path[:rt.prefixLen] != rt.Prefix {
		return "", false
	}
	return strings.TrimPrefix(path[rt.prefixLen:], "/"), true
}

// Resource returns the resource handler at a matched index.
func (rt *Router) Resource(idx int) *Resource {
	return rt.entries[idx].Resource
}

// URLFor generates a concrete URL for a named pattern. External patterns
// do not prepend the router prefix; others prepend "<prefix>/".
func (rt *Router) URLFor(name string, elements ...string) (string, error) {
	p, found := rt.byName[name]
	if !found {
		return "", httperr.NewResourceNotFound(name)
	}
	path, ok := p.ResourcePath(elements...)
	if !ok {
		return "", httperr.NewNotEnoughElements(name, elements)
	}
	if p.Kind == pattern.External {
		return path, nil
	}
	return rt.Prefix + "/" + path, nil
}
