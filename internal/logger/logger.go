// Package logger wires log/slog for the server. Handlers pull a request-scoped
// logger (tagged with request_id) out of the context with FromContext.
package logger

import (
	"context"
	"log/slog"
	"os"
)

// L is the process-wide base logger.
var L = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

// Setup replaces the base logger: JSON at info level in production,
// human-readable text at debug level otherwise.
func Setup(production bool) *slog.Logger {
	if production {
		L = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	} else {
		L = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	slog.SetDefault(L)
	return L
}

type ctxKey struct{}

// Inject stores a request-scoped logger in ctx.
func Inject(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// FromContext returns the logger stored by Inject, or the base logger.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
			return log
		}
	}
	return L
}
