// Package httplog wraps log/slog into the request-scoped Logger the
// pipeline and connector use, following the teacher's pkg/logger.go but
// dropping the tenant/user/i18n fields that belonged to the deleted
// application layer.
package httplog

import (
	"context"
	"crypto/rand"
	"log/slog"
	"os"

	"golang.org/x/crypto/sha3"
)

// Logger is the structured logging surface used across httpcore.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	WithRequestID(id string) Logger
	WithFields(fields map[string]any) Logger
	WithError(err error) Logger
}

type slogLogger struct {
	logger *slog.Logger
}

// New wraps an *slog.Logger; a nil logger uses slog.Default().
func New(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &slogLogger{logger: logger}
}

// NewDefault builds a Logger writing JSON to stderr, the teacher's default
// shape in pkg/logger.go.
func NewDefault() Logger {
	return New(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
}

func (l *slogLogger) Debug(msg string, args ...any) { l.logger.LogAttrs(context.Background(), slog.LevelDebug, msg, toAttrs(args)...) }
func (l *slogLogger) Info(msg string, args ...any)  { l.logger.LogAttrs(context.Background(), slog.LevelInfo, msg, toAttrs(args)...) }
func (l *slogLogger) Warn(msg string, args ...any)  { l.logger.LogAttrs(context.Background(), slog.LevelWarn, msg, toAttrs(args)...) }
func (l *slogLogger) Error(msg string, args ...any) { l.logger.LogAttrs(context.Background(), slog.LevelError, msg, toAttrs(args)...) }

func toAttrs(args []any) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, slog.Any(key, args[i+1]))
	}
	return attrs
}

func (l *slogLogger) WithRequestID(id string) Logger {
	return &slogLogger{logger: l.logger.With(slog.String("request_id", id))}
}

func (l *slogLogger) WithFields(fields map[string]any) Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &slogLogger{logger: l.logger.With(args...)}
}

func (l *slogLogger) WithError(err error) Logger {
	return &slogLogger{logger: l.logger.With(slog.String("error", err.Error()))}
}

// noop discards everything; used as the Pipeline/Connector default so
// finish-phase and maintenance-pass logging never requires a nil check.
type noop struct{}

func (noop) Debug(string, ...any)         {}
func (noop) Info(string, ...any)          {}
func (noop) Warn(string, ...any)          {}
func (noop) Error(string, ...any)         {}
func (n noop) WithRequestID(string) Logger          { return n }
func (n noop) WithFields(map[string]any) Logger     { return n }
func (n noop) WithError(error) Logger               { return n }

// NoOp returns a Logger that discards everything.
func NoOp() Logger { return noop{} }

// NewRequestID generates a non-default request id: the first 8 bytes (16
// hex characters) of a sha3-256 digest over 32 random bytes. It is an
// alternative to the uuid-based default generator in pkg/httpserver for
// callers that want to avoid a uuid dependency on this specific path.
func NewRequestID() string {
	var seed [32]byte
	_, _ = rand.Read(seed[:])
	sum := sha3.Sum256(seed[:])
	const hextable = "0123456789abcdef"
	out := make([]byte, 16)
	for i := 0; i < 8; i++ {
		out[i*2] = hextable[sum[i]>>4]
		out[i*2+1] = hextable[sum[i]&0x0f]
	}
	return string(out)
}
