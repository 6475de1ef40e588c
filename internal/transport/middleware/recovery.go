package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	errors "github.com/frahmantamala/feegateway/internal"
	"github.com/frahmantamala/feegateway/internal/transport"
	"github.com/frahmantamala/feegateway/pkg/logger"
)

// RecoveryMiddleware turns a panic into a 500 in the standard error envelope.
// The panic value and stack only go to the log.
func RecoveryMiddleware(lg *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				reqLogger := logger.Enrich(r.Context(), lg)
				reqLogger.Error("panic recovered",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()))

				transport.NewBaseHandler(reqLogger).HandleError(w, errors.NewInternalError("Internal server error", nil))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
