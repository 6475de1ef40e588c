package internal

import (
	"context"
	"time"
)

type ctxKey string

const (
	ContextTenantKey  ctxKey = "tenantID"
	ContextServiceKey ctxKey = "service"
)

func TenantIDFromContext(ctx context.Context) (int64, bool) {
	if ctx == nil {
		return 0, false
	}
	tenantID, ok := ctx.Value(ContextTenantKey).(int64)
	if !ok || tenantID <= 0 {
		return 0, false
	}
	return tenantID, true
}

func ContextWithTenantID(ctx context.Context, tenantID int64) context.Context {
	return context.WithValue(ctx, ContextTenantKey, tenantID)
}

func ServiceFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if service, ok := ctx.Value(ContextServiceKey).(string); ok {
		return service
	}
	return ""
}

func ContextWithService(ctx context.Context, service string) context.Context {
	return context.WithValue(ctx, ContextServiceKey, service)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
