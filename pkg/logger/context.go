package logger

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	fieldsKey ctxKey = iota
	traceIDKey
)

// With returns a context whose log fields include fields. Fields accumulate
// across calls and are applied by From and Enrich.
func With(ctx context.Context, fields ...any) context.Context {
	existing, _ := ctx.Value(fieldsKey).([]any)
	merged := make([]any, 0, len(existing)+len(fields))
	merged = append(merged, existing...)
	merged = append(merged, fields...)
	return context.WithValue(ctx, fieldsKey, merged)
}

// From returns the default logger carrying the context's fields.
func From(ctx context.Context) *slog.Logger {
	return Enrich(ctx, LoggerWrapper())
}

// Enrich adds the context's fields to l.
func Enrich(ctx context.Context, l *slog.Logger) *slog.Logger {
	if fields, ok := ctx.Value(fieldsKey).([]any); ok && len(fields) > 0 {
		return l.With(fields...)
	}
	return l
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	ctx = context.WithValue(ctx, traceIDKey, traceID)
	return With(ctx, "trace_id", traceID)
}

func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}
