package router

import (
	"net/http"
	"testing"

	"github.com/wrenfield/httpcore/pkg/httprequest"
	"github.com/wrenfield/httpcore/pkg/pattern"
)

func mustPattern(t *testing.T, name, tmpl string) *pattern.Pattern {
	t.Helper()
	p, err := pattern.Parse(name, tmpl)
	if err != nil {
		t.Fatalf("pattern.Parse(%q): %v", tmpl, err)
	}
	return p
}

func okHandler(req *httprequest.HttpRequest) httprequest.Reply {
	return httprequest.Reply{Response: httprequest.NewResponse(http.StatusOK)}
}

// TestRecognizeS1 mirrors spec.md scenario S1.
func TestRecognizeS1(t *testing.T) {
	rt := New("", ServerSettings{}, []Entry{
		{Pattern: mustPattern(t, "", "/name"), Resource: NewResource().GET(okHandler)},
		{Pattern: mustPattern(t, "", "/name/{val}"), Resource: NewResource().GET(okHandler)},
	})

	if idx, params, ok := rt.Recognize("/name"); !ok || idx != 0 || len(params) != 0 {
		t.Fatalf("GET /name: idx=%d params=%v ok=%v", idx, params, ok)
	}
	if idx, params, ok := rt.Recognize("/name/value"); !ok || idx != 1 || params["val"] != "value" {
		t.Fatalf("GET /name/value: idx=%d params=%v ok=%v", idx, params, ok)
	}
	if _, _, ok := rt.Recognize("/other"); ok {
		t.Fatalf("GET /other: expected no match")
	}
}

// TestRecognizePrefixS2 mirrors spec.md scenario S2's router-level half
// (the application-level prefix-acceptance half lives in pkg/app).
func TestRecognizePrefixS2(t *testing.T) {
	rt := New("/test", ServerSettings{}, []Entry{
		{Pattern: mustPattern(t, "", "/blah"), Resource: NewResource().GET(okHandler)},
	})

	if _, _, ok := rt.Recognize("/test"); ok {
		t.Fatalf("GET /test: router itself should not match an empty suffix against /blah")
	}
	if idx, _, ok := rt.Recognize("/test/blah"); !ok || idx != 0 {
		t.Fatalf("GET /test/blah: idx=%d ok=%v", idx, ok)
	}
}

func TestLowestIndexWins(t *testing.T) {
	rt := New("", ServerSettings{}, []Entry{
		{Pattern: mustPattern(t, "", "/{any}"), Resource: NewResource().GET(okHandler)},
		{Pattern: mustPattern(t, "", "/specific"), Resource: NewResource().GET(okHandler)},
	})
	idx, params, ok := rt.Recognize("/specific")
	if !ok || idx != 0 {
		t.Fatalf("expected lowest matching index 0, got idx=%d ok=%v", idx, ok)
	}
	if params["any"] != "specific" {
		t.Fatalf("unexpected params: %#v", params)
	}
}

func TestURLFor(t *testing.T) {
	rt := New("/api", ServerSettings{}, []Entry{
		{Pattern: mustPattern(t, "user", "/user/{id}"), Resource: NewResource().GET(okHandler)},
	})
	url, err := rt.URLFor("user", "42")
	if err != nil {
		t.Fatalf("URLFor: %v", err)
	}
	if url != "/api/user/42" {
		t.Fatalf("unexpected url: %q", url)
	}
	if _, err := rt.URLFor("missing"); err == nil {
		t.Fatalf("expected ResourceNotFound")
	}
	if _, err := rt.URLFor("user"); err == nil {
		t.Fatalf("expected NotEnoughElements")
	}
}

func TestResourceDefaultFallback(t *testing.T) {
	res := NewResource().Default(func(req *httprequest.HttpRequest) httprequest.Reply {
		return httprequest.Reply{Response: httprequest.NewResponse(http.StatusMethodNotAllowed)}
	})
	req := httprequest.New("GET", nil, nil)
	h, ok := res.Dispatch(req)
	if !ok {
		t.Fatalf("expected default route to satisfy dispatch")
	}
	if reply := h(req); reply.Response.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("unexpected status: %d", reply.Response.StatusCode)
	}
}
