// Package logger provides structured logging setup for the blackboard.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/Strob0t/blackboard/internal/config"
)

const (
	asyncBuffer  = 4096
	asyncWorkers = 1
)

// New creates a *slog.Logger from the given Logging config.
// Output is JSON to stdout with a "service" attribute on every record, or
// human-readable text when stdout is a terminal. The returned Closer flushes
// the async handler when cfg.Async is set.
func New(cfg config.Logging) (*slog.Logger, Closer) {
	return newWithWriter(cfg, os.Stdout, term.IsTerminal(int(os.Stdout.Fd())))
}

func newWithWriter(cfg config.Logging, w io.Writer, text bool) (*slog.Logger, Closer) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if text {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	handler = &requestIDHandler{inner: handler}

	var closer Closer = nopCloser{}
	if cfg.Async {
		ah := NewAsyncHandler(handler, asyncBuffer, asyncWorkers)
		handler, closer = ah, ah
	}

	return slog.New(handler).With("service", cfg.Service), closer
}

// requestIDHandler adds the request ID carried by the context to each record.
type requestIDHandler struct {
	inner slog.Handler
}

func (h *requestIDHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *requestIDHandler) Handle(ctx context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	if id := RequestID(ctx); id != "" {
		rec.AddAttrs(slog.String("request_id", id))
	}
	return h.inner.Handle(ctx, rec)
}

func (h *requestIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &requestIDHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *requestIDHandler) WithGroup(name string) slog.Handler {
	return &requestIDHandler{inner: h.inner.WithGroup(name)}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
