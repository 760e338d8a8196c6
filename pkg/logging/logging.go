// Package logging builds the slog handler used by cmd/dcmctl: a plain
// text or JSON handler over an io.Writer, with context-carried attributes
// (AppendCtx) so a request/run-scoped value set added once at the top of
// a call chain shows up on every log line beneath it without threading a
// logger through every function signature.
package logging

import (
	"context"
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger builds the process-wide slog handler: JSON if asJSON is true,
// otherwise slog's default text format, at the given minimum level.
func Logger(w io.Writer, asJSON bool, level slog.Leveler) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if asJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(&ctxHandler{Handler: h})
}

// RotatingWriter returns an io.Writer that rotates the log file at path
// once it exceeds maxSizeMB, keeping at most maxBackups old files for at
// most maxAgeDays.
func RotatingWriter(path string, maxSizeMB, maxBackups, maxAgeDays int) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}
}

type ctxAttrsKey struct{}

// AppendCtx returns a context carrying attr in addition to any attrs
// already attached by a prior AppendCtx call. Every slog call made with
// the returned context (or a descendant of it) logs attr automatically.
func AppendCtx(ctx context.Context, attr slog.Attr) context.Context {
	existing, _ := ctx.Value(ctxAttrsKey{}).([]slog.Attr)
	next := make([]slog.Attr, len(existing), len(existing)+1)
	copy(next, existing)
	next = append(next, attr)
	return context.WithValue(ctx, ctxAttrsKey{}, next)
}

// ctxHandler wraps a slog.Handler, injecting whatever attrs AppendCtx
// attached to the context passed to Handle.
type ctxHandler struct {
	slog.Handler
}

func (h *ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs, ok := ctx.Value(ctxAttrsKey{}).([]slog.Attr); ok {
		r.AddAttrs(attrs...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ctxHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *ctxHandler) WithGroup(name string) slog.Handler {
	return &ctxHandler{Handler: h.Handler.WithGroup(name)}
}
