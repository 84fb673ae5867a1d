package httplog

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newBufferLogger(buf *bytes.Buffer) Logger {
	return New(slog.New(slog.NewJSONHandler(buf, nil)))
}

func TestLoggerLevels(t *testing.T) {
	cases := []struct {
		log   func(Logger, string, ...any)
		level string
	}{
		{Logger.Info, "INFO"},
		{Logger.Warn, "WARN"},
		{Logger.Error, "ERROR"},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		l := newBufferLogger(&buf)

		tc.log(l, "hello", "k", "v")

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("unmarshal log line: %v", err)
		}
		if entry["level"] != tc.level {
			t.Fatalf("level = %v, want %q", entry["level"], tc.level)
		}
		if entry["msg"] != "hello" {
			t.Fatalf("msg = %v, want %q", entry["msg"], "hello")
		}
		if entry["k"] != "v" {
			t.Fatalf("k = %v, want %q", entry["k"], "v")
		}
	}
}

func TestWithRequestIDAddsField(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf).WithRequestID("req-123")

	l.Info("handled")

	if !strings.Contains(buf.String(), `"request_id":"req-123"`) {
		t.Fatalf("log line missing request_id field: %s", buf.String())
	}
}

func TestWithFieldsAddsAllKeys(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf).WithFields(map[string]any{"a": 1, "b": "two"})

	l.Warn("fields test")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["a"] != float64(1) || entry["b"] != "two" {
		t.Fatalf("fields not present: %v", entry)
	}
}

func TestWithErrorAddsErrorField(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf).WithError(errors.New("boom"))

	l.Error("failed")

	if !strings.Contains(buf.String(), `"error":"boom"`) {
		t.Fatalf("log line missing error field: %s", buf.String())
	}
}

func TestNoOpDiscardsEverything(t *testing.T) {
	n := NoOp()
	// None of these should panic or write anywhere observable; chaining
	// derivation methods must keep returning a usable no-op Logger.
	n.Debug("x")
	n.Info("x")
	n.Warn("x")
	n.Error("x")
	derived := n.WithRequestID("id").WithFields(map[string]any{"k": "v"}).WithError(errors.New("e"))
	derived.Info("still a no-op")
}

func TestNewRequestIDIsHex16AndVaries(t *testing.T) {
	a := NewRequestID()
	b := NewRequestID()

	if len(a) != 16 {
		t.Fatalf("len(NewRequestID()) = %d, want 16", len(a))
	}
	for _, c := range a {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Fatalf("NewRequestID() contains non-hex rune %q: %s", c, a)
		}
	}
	if a == b {
		t.Fatalf("two calls to NewRequestID() produced the same id: %s", a)
	}
}
