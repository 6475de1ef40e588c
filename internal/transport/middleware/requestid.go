package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/frahmantamala/feegateway/pkg/logger"
)

const (
	traceHeader     = "X-Trace-ID"
	maxTraceIDBytes = 64
)

// RequestID propagates the caller's trace id, or mints one, into the log
// context and the response headers. Ids that are too long or contain
// characters outside [A-Za-z0-9._-] are replaced, since banks and browsers
// reach this service directly.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(traceHeader)
		if !validTraceID(traceID) {
			traceID = uuid.NewString()
		}

		w.Header().Set(traceHeader, traceID)
		next.ServeHTTP(w, r.WithContext(logger.WithTraceID(r.Context(), traceID)))
	})
}

func validTraceID(id string) bool {
	if id == "" || len(id) > maxTraceIDBytes {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}
