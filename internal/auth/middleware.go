package auth

import (
	"errors"
	"log/slog"
	"net/http"

	internal "github.com/frahmantamala/feegateway/internal"
	"github.com/frahmantamala/feegateway/internal/transport"
	"github.com/frahmantamala/feegateway/pkg/logger"
)

type Middleware struct {
	*transport.BaseHandler
	verifier TokenVerifier
}

func NewMiddleware(verifier TokenVerifier, lg *slog.Logger) *Middleware {
	return &Middleware{
		BaseHandler: transport.NewBaseHandler(lg),
		verifier:    verifier,
	}
}

// RequireServiceToken rejects requests without a valid service token and puts
// the token's tenant into the request context.
func (m *Middleware) RequireServiceToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := m.ExtractTokenFromHeader(r)
		if token == "" {
			m.Logger.Debug("auth middleware: missing authorization token")
			m.HandleError(w, internal.ErrInvalidToken)
			return
		}

		claims, err := m.verifier.Verify(token)
		if err != nil {
			m.Logger.Warn("auth middleware: token rejected", "error", err, "remote_addr", r.RemoteAddr)
			if errors.Is(err, ErrTokenExpired) {
				m.HandleError(w, internal.ErrTokenExpired)
				return
			}
			m.HandleError(w, internal.ErrInvalidToken)
			return
		}

		ctx := internal.ContextWithTenantID(r.Context(), claims.TenantID)
		ctx = internal.ContextWithService(ctx, claims.Service)
		ctx = logger.With(ctx, "tenant_id", claims.TenantID, "service", claims.Service)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
