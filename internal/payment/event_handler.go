package payment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/feegateway/internal/core/events"
)

// VerifiedPaymentSink receives every authentic callback result.
type VerifiedPaymentSink interface {
	HandlePaymentVerified(ctx context.Context, event events.Event) error
}

type EventHandler struct {
	sink   VerifiedPaymentSink
	logger *slog.Logger
}

func NewEventHandler(sink VerifiedPaymentSink, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		sink:   sink,
		logger: logger,
	}
}

func (h *EventHandler) HandlePaymentRejected(ctx context.Context, event events.Event) error {
	rejected, ok := event.(*events.PaymentRejectedEvent)
	if !ok {
		h.logger.Error("invalid event type for payment rejected handler", "event_type", event.EventType())
		return fmt.Errorf("expected PaymentRejectedEvent, got %T", event)
	}

	h.logger.Warn("untrusted payment callback recorded",
		"tenant_id", rejected.TenantID,
		"order_id", rejected.OrderID,
		"provider", rejected.Provider,
		"reason", rejected.Reason,
		"event_id", rejected.EventID())
	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	handlers := []string{events.EventTypePaymentRejected}
	eventBus.Subscribe(events.EventTypePaymentRejected, h.HandlePaymentRejected)

	if h.sink != nil {
		eventBus.Subscribe(events.EventTypePaymentVerified, h.sink.HandlePaymentVerified)
		handlers = append(handlers, events.EventTypePaymentVerified)
	}

	h.logger.Info("payment event handlers registered", "handlers", handlers)
}
