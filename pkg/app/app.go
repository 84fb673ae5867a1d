// Package app implements the application builder and dispatcher: prefix
// matching, router recognition, fallback prefix handlers, and the default
// resource, following original_source/src/application.rs.
package app

import (
	"strings"

	"github.com/wrenfield/httpcore/pkg/httprequest"
	"github.com/wrenfield/httpcore/pkg/middleware"
	"github.com/wrenfield/httpcore/pkg/pattern"
	"github.com/wrenfield/httpcore/pkg/router"
)

func patternParse(name, template string) (*pattern.Pattern, error) {
	return pattern.Parse(name, template)
}

func patternParseExternal(name, template string) (*pattern.Pattern, error) {
	p, err := pattern.Parse(name, template)
	if err != nil {
		return nil, err
	}
	p.Kind = pattern.External
	return p, nil
}

// HandlerKind classifies how a request was dispatched.
type HandlerKind int

const (
	Normal HandlerKind = iota
	PrefixHandler
	Default
)

// HandlerType names the dispatch outcome for one request, along with the
// index it resolved to (meaningless for Default).
type HandlerType struct {
	Kind HandlerKind
	Idx  int
}

type prefixMount struct {
	prefix  string
	handler router.HandlerFunc
}

// Application holds shared state, the application prefix, the router, a
// default-resource handler, a prefix-matched handler list (static-file
// trees and the like), the middleware list, and a default content
// encoding. Prefix and router are set at Finish time and immutable
// thereafter; calling a builder method after Finish panics.
type Application struct {
	state           interface{}
	prefix          string
	defaultResource router.HandlerFunc
	prefixHandlers  []prefixMount
	middlewares     []middleware.Middleware
	defaultEncoding string
	configure       []func(*Application)

	entries  []router.Entry
	finished bool
	router   *router.Router
}

// New starts a builder with an empty prefix.
func New() *Application {
	return &Application{}
}

func (a *Application) guard() {
	if a.finished {
		panic("app: builder method called after Finish")
	}
}

// WithState attaches the application's shared state value.
func (a *Application) WithState(state interface{}) *Application {
	a.guard()
	a.state = state
	return a
}

// Prefix sets the application's mount prefix. A leading '/' is inserted if
// absent; a trailing '/' is stripped; an empty prefix normalizes to "".
func (a *Application) Prefix(prefix string) *Application {
	a.guard()
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	prefix = strings.TrimSuffix(prefix, "/")
	a.prefix = prefix
	return a
}

// Resource registers a named route pattern with a resource handler built
// by configure.
func (a *Application) Resource(name, template string, configure func(*router.Resource)) *Application {
	a.guard()
	p, err := patternParse(name, template)
	if err != nil {
		panic(err)
	}
	res := router.NewResource()
	configure(res)
	a.entries = append(a.entries, router.Entry{Pattern: p, Resource: res})
	return a
}

// ExternalResource registers a URL-generation-only pattern; its name must
// be unique or Finish panics.
func (a *Application) ExternalResource(name, template string) *Application {
	a.guard()
	p, err := patternParseExternal(name, template)
	if err != nil {
		panic(err)
	}
	a.entries = append(a.entries, router.Entry{Pattern: p, Resource: nil})
	return a
}

// DefaultResource sets the handler invoked when no pattern matches.
func (a *Application) DefaultResource(handler router.HandlerFunc) *Application {
	a.guard()
	a.defaultResource = handler
	return a
}

// DefaultEncoding sets the application's default content-encoding name.
func (a *Application) DefaultEncoding(enc string) *Application {
	a.guard()
	a.defaultEncoding = enc
	return a
}

// Handler mounts handler at a path prefix for non-pattern trees (such as
// static-file serving). A trailing '/' on path is trimmed.
func (a *Application) Handler(path string, handler router.HandlerFunc) *Application {
	a.guard()
	path = strings.TrimSuffix(path, "/")
	a.prefixHandlers = append(a.prefixHandlers, prefixMount{prefix: path, handler: handler})
	return a
}

// Middleware appends a middleware to the application's chain, in the order
// it will run its start phase.
func (a *Application) Middleware(m middleware.Middleware) *Application {
	a.guard()
	a.middlewares = append(a.middlewares, m)
	return a
}

// Configure defers a closure to run against the builder, for composing
// sub-configuration.
func (a *Application) Configure(fn func(*Application)) *Application {
	a.guard()
	a.configure = append(a.configure, fn)
	return a
}

// Finish is terminal: it runs deferred Configure closures, builds the
// Router from the registered entries, and freezes the builder. Calling any
// builder method afterward panics.
func (a *Application) Finish() *Application {
	a.guard()
	for _, fn := range a.configure {
		fn(a)
	}
	external := make(map[string]bool)
	for _, e := range a.entries {
		if e.Pattern.Kind != pattern.External {
			continue
		}
		if external[e.Pattern.Name] {
			panic("app: external resource " + e.Pattern.Name + " is already registered")
		}
		external[e.Pattern.Name] = true
	}
	a.router = router.New(a.prefix, router.ServerSettings{}, a.entries)
	a.finished = true
	return a
}

// Router returns the application's router; valid only after Finish.
func (a *Application) Router() *router.Router { return a.router }

// State returns the application's shared state value.
func (a *Application) State() interface{} { return a.state }

// Middlewares returns the application's middleware chain, in start order.
func (a *Application) Middlewares() []middleware.Middleware { return a.middlewares }

// Dispatch implements the algorithm in spec.md §4.3:
//  1. if the path does not start with the application prefix, or the
//     character following the prefix is present and is not '/', the
//     request is unhandled by this application.
//  2. otherwise compute a HandlerType: router match, else scan the
//     prefix-handler list (writing the remainder minus one '/' into
//     params["tail"]), else Default.
func (a *Application) Dispatch(req *httprequest.HttpRequest) (HandlerType, bool) {
	path := req.URL.Path
	if !strings.HasPrefix(path, a.prefix) {
		return HandlerType{}, false
	}
	if len(path) > len(a.prefix) && path[len(a.prefix)] != '/' {
		return HandlerType{}, false
	}

	req.State = a.state

	if idx, params, ok := a.router.Recognize(path); ok {
		for k, v := range params {
			req.Params[k] = v
		}
		req.ResourceIdx = idx
		return HandlerType{Kind: Normal, Idx: idx}, true
	}

	rest := path[len(a.prefix):]
	for i, pm := range a.prefixHandlers {
		if rest == pm.prefix || strings.HasPrefix(rest, pm.prefix+"/") {
			tail := strings.TrimPrefix(rest[len(pm.prefix):], "/")
			req.Params["tail"] = tail
			return HandlerType{Kind: PrefixHandler, Idx: i}, true
		}
	}

	return HandlerType{Kind: Default}, true
}

// Handle resolves a HandlerType produced by Dispatch to a concrete
// HandlerFunc. Default resolves to DefaultResource; a Normal match whose
// resource has no matching route and no default route yields ok=false
// without falling back to DefaultResource.
func (a *Application) Handle(ht HandlerType, req *httprequest.HttpRequest) (router.HandlerFunc, bool) {
	switch ht.Kind {
	case Normal:
		return a.router.Resource(ht.Idx).Dispatch(req)
	case PrefixHandler:
		return a.prefixHandlers[ht.Idx].handler, true
	default:
		if a.defaultResource != nil {
			return a.defaultResource, true
		}
		return nil, false
	}
}
