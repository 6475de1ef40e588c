package rest

import (
	"log/slog"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/feegateway/api"
	"github.com/frahmantamala/feegateway/internal/auth"
	"github.com/frahmantamala/feegateway/internal/payment"
	"github.com/frahmantamala/feegateway/internal/tenant"
	"github.com/frahmantamala/feegateway/internal/transport/middleware"
	"github.com/frahmantamala/feegateway/internal/transport/swagger"
)

// Routes collects the handlers mounted by RegisterAllRoutes. A nil handler
// leaves its routes unmounted.
type Routes struct {
	Health         *HealthHandler
	Auth           *auth.Middleware
	Validator      *api.Validator
	Payment        *payment.Handler
	Webhook        *payment.WebhookHandler
	Tenant         *tenant.Handler
	AllowedOrigins string
}

func RegisterAllRoutes(router *chi.Mux, routes Routes, logger *slog.Logger) {
	// Apply global middleware
	router.Use(middleware.CORS(routes.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Get("/openapi.yml", api.ServeSpec)
	router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))

	router.Route("/api/v1", func(r chi.Router) {
		if routes.Health != nil {
			r.Get("/health", routes.Health.healthCheckHandler)
			r.Get("/ping", routes.Health.pingHandler)
		}

		// Reached by banks and payers, never with a service token.
		if routes.Webhook != nil {
			r.Get("/payment/callback/{tenantID}", routes.Webhook.HandlePaymentCallback)
			r.Post("/payment/callback/{tenantID}", routes.Webhook.HandlePaymentCallback)
			r.Get("/payments/simulated-bank/{tenantID}", routes.Webhook.SimulatedBank)
		}

		if routes.Auth == nil {
			return
		}

		r.Group(func(pr chi.Router) {
			pr.Use(routes.Auth.RequireServiceToken)
			if routes.Validator != nil {
				pr.Use(routes.Validator.ValidateRequests)
			}

			if routes.Payment != nil {
				pr.Post("/checkouts", routes.Payment.Checkout)
				pr.Get("/checkouts/{orderID}/verifications", routes.Payment.History)
			}

			if routes.Tenant != nil {
				pr.Get("/settings/payment", routes.Tenant.GetSettings)
				pr.Put("/settings/payment", routes.Tenant.SaveSettings)
			}
		})
	})
}
