package logging

import (
	"context"

	"github.com/charmbracelet/log"
)

type ctxKey int

const (
	keyLogger ctxKey = iota
	keyRequestID
)

// FromContext returns the logger attached to ctx, falling back to Default.
func FromContext(ctx context.Context) *log.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(keyLogger).(*log.Logger); ok && logger != nil {
			return logger
		}
	}
	return Default()
}

// WithLogger attaches logger to ctx. A nil ctx is treated as Background.
func WithLogger(ctx context.Context, logger *log.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, keyLogger, logger)
}

// With attaches a child of the context logger carrying keyvals.
func With(ctx context.Context, keyvals ...any) context.Context {
	return WithLogger(ctx, FromContext(ctx).With(keyvals...))
}

// WithRequestID records id on ctx and tags the context logger with it, so
// every review log line for one HTTP request can be correlated.
func WithRequestID(ctx context.Context, id string) context.Context {
	ctx = With(ctx, FieldRequestID, id)
	return context.WithValue(ctx, keyRequestID, id)
}

// RequestID returns the id recorded by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(keyRequestID).(string)
	return id
}
