package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	internal "github.com/frahmantamala/feegateway/internal"
	"github.com/frahmantamala/feegateway/internal/core/datamodel/payment"
	paymentgatewaytypes "github.com/frahmantamala/feegateway/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/feegateway/internal/core/events"
	"github.com/frahmantamala/feegateway/internal/paymentgateway"
	"github.com/frahmantamala/feegateway/pkg/logger"
)

// LedgerRepository stores verification attempts. Append reports false when
// the same payload was already recorded for the tenant.
type LedgerRepository interface {
	Append(ctx context.Context, v *payment.Verification) (bool, error)
	ListByOrder(ctx context.Context, tenantID int64, orderID string) ([]*payment.Verification, error)
}

// SettingsLoader returns a tenant's gateway configuration. It is called on
// every request so a settings change applies to the next transaction.
type SettingsLoader interface {
	Load(ctx context.Context, tenantID int64) (paymentgatewaytypes.GatewayConfig, error)
}

// CallbackDeduper drops redelivered callbacks before they reach the ledger.
type CallbackDeduper interface {
	Claim(ctx context.Context, tenantID int64, digest string) (bool, error)
	Release(ctx context.Context, tenantID int64, digest string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type ServiceAPI interface {
	Checkout(ctx context.Context, tenantID int64, req paymentgatewaytypes.PaymentRequest) (*CheckoutResponse, error)
	HandleCallback(ctx context.Context, tenantID int64, payload paymentgatewaytypes.CallbackPayload) (*CallbackOutcome, error)
	History(ctx context.Context, tenantID int64, orderID string) ([]*payment.Verification, error)
	InTestMode(ctx context.Context, tenantID int64) (bool, error)
}

type Config struct {
	// SimulatedBankURL is the base URL of the simulated bank route; the tenant
	// id is appended as the last path segment.
	SimulatedBankURL string
	// Endpoints overrides live provider URLs, e.g. with UAT hosts.
	Endpoints map[paymentgatewaytypes.Provider]string
}

type Service struct {
	settings  SettingsLoader
	ledger    LedgerRepository
	deduper   CallbackDeduper
	publisher EventPublisher
	config    Config
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires the checkout and callback flow. deduper may be nil.
func NewService(settings SettingsLoader, ledger LedgerRepository, deduper CallbackDeduper, publisher EventPublisher, config Config, logger *slog.Logger) *Service {
	return &Service{
		settings:  settings,
		ledger:    ledger,
		deduper:   deduper,
		publisher: publisher,
		config:    config,
		logger:    logger,
		now:       time.Now,
	}
}

// log carries the request's trace and tenant fields.
func (s *Service) log(ctx context.Context) *slog.Logger {
	return logger.Enrich(ctx, s.logger)
}

func (s *Service) factoryFor(tenantID int64) *paymentgateway.Factory {
	opts := make([]paymentgateway.FactoryOption, 0, len(s.config.Endpoints)+1)
	for provider, endpoint := range s.config.Endpoints {
		opts = append(opts, paymentgateway.WithProviderEndpoint(provider, endpoint))
	}
	if s.config.SimulatedBankURL != "" {
		opts = append(opts, paymentgateway.WithSimulatedBankURL(fmt.Sprintf("%s/%d", s.config.SimulatedBankURL, tenantID)))
	}
	return paymentgateway.NewFactory(opts...)
}

func (s *Service) adapterFor(ctx context.Context, tenantID int64) (paymentgateway.Adapter, error) {
	cfg, err := s.settings.Load(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	adapter, err := s.factoryFor(tenantID).Adapter(cfg)
	if err != nil {
		return nil, s.unavailable(ctx, tenantID, err)
	}
	return adapter, nil
}

// unavailable logs the real cause and hides it from the client.
func (s *Service) unavailable(ctx context.Context, tenantID int64, err error) error {
	s.log(ctx).Error("payment gateway unavailable", "tenant_id", tenantID, "error", err)
	return internal.NewUnavailableError("Payment is temporarily unavailable", internal.ErrCodePaymentUnavailable, err)
}

func (s *Service) Checkout(ctx context.Context, tenantID int64, req paymentgatewaytypes.PaymentRequest) (*CheckoutResponse, error) {
	adapter, err := s.adapterFor(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	descriptor, err := adapter.Initiate(req)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok {
			return nil, appErr
		}
		var cfgErr *paymentgateway.ConfigurationError
		var encErr *paymentgateway.EncodingError
		if errors.As(err, &cfgErr) || errors.As(err, &encErr) {
			return nil, s.unavailable(ctx, tenantID, err)
		}
		return nil, internal.NewInternalError("Failed to initiate payment", err)
	}

	s.log(ctx).Info("checkout initiated",
		"tenant_id", tenantID,
		"order_id", req.OrderID,
		"provider", adapter.Provider(),
		"amount", req.FormattedAmount())

	return &CheckoutResponse{
		Provider:   string(adapter.Provider()),
		Simulated:  adapter.Provider() == paymentgatewaytypes.ProviderSimulation,
		TargetURL:  descriptor.TargetURL,
		HTTPMethod: descriptor.HTTPMethod,
		FormFields: descriptor.FormFields,
	}, nil
}

func (s *Service) HandleCallback(ctx context.Context, tenantID int64, payload paymentgatewaytypes.CallbackPayload) (*CallbackOutcome, error) {
	adapter, err := s.adapterFor(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	result, err := adapter.Verify(payload)
	if err != nil {
		return nil, s.unavailable(ctx, tenantID, err)
	}

	digest := payment.PayloadDigest(result.RawPayload)
	if s.deduper != nil {
		first, err := s.deduper.Claim(ctx, tenantID, digest)
		switch {
		case err != nil:
			s.log(ctx).Warn("callback dedupe unavailable, relying on ledger", "tenant_id", tenantID, "error", err)
		case !first:
			s.log(ctx).Info("duplicate callback ignored", "tenant_id", tenantID, "order_id", result.OrderID)
			return &CallbackOutcome{Result: result, Duplicate: true}, nil
		}
	}

	record, err := payment.NewVerification(tenantID, result, s.now())
	if err != nil {
		s.release(ctx, tenantID, digest)
		return nil, internal.NewInternalError("Failed to record callback", err)
	}

	inserted, err := s.ledger.Append(ctx, record)
	if err != nil {
		s.release(ctx, tenantID, digest)
		s.log(ctx).Error("failed to append verification", "tenant_id", tenantID, "order_id", result.OrderID, "error", err)
		return nil, internal.NewInternalError("Failed to record callback", err)
	}
	if !inserted {
		s.log(ctx).Info("callback already recorded", "tenant_id", tenantID, "order_id", result.OrderID)
		return &CallbackOutcome{Result: result, Duplicate: true}, nil
	}

	s.publish(ctx, tenantID, result)

	return &CallbackOutcome{Result: result, RecordID: record.ID}, nil
}

func (s *Service) release(ctx context.Context, tenantID int64, digest string) {
	if s.deduper == nil {
		return
	}
	if err := s.deduper.Release(ctx, tenantID, digest); err != nil {
		s.log(ctx).Warn("failed to release callback claim", "tenant_id", tenantID, "error", err)
	}
}

func (s *Service) publish(ctx context.Context, tenantID int64, result *paymentgatewaytypes.VerificationResult) {
	var event events.Event
	if Trusted(result) {
		event = events.NewPaymentVerifiedEvent(tenantID, result)
		s.log(ctx).Info("payment callback verified",
			"tenant_id", tenantID,
			"order_id", result.OrderID,
			"provider", result.Provider,
			"outcome", result.Outcome,
			"simulated", result.Simulated)
	} else {
		event = events.NewPaymentRejectedEvent(tenantID, result)
		s.log(ctx).Warn("payment callback rejected",
			"tenant_id", tenantID,
			"order_id", result.OrderID,
			"provider", result.Provider,
			"reason", result.Reason)
	}

	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log(ctx).Error("failed to publish payment event", "event_type", event.EventType(), "error", err)
	}
}

// Trusted reports whether the callback is authentic, regardless of whether
// the bank accepted the payment.
func Trusted(result *paymentgatewaytypes.VerificationResult) bool {
	switch result.Reason {
	case "", paymentgatewaytypes.ReasonDeclined, paymentgatewaytypes.ReasonUnknownStatus:
		return true
	}
	return false
}

func (s *Service) History(ctx context.Context, tenantID int64, orderID string) ([]*payment.Verification, error) {
	records, err := s.ledger.ListByOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, internal.NewInternalError("Failed to load payment history", err)
	}
	if len(records) == 0 {
		return nil, internal.ErrOrderNotFound
	}
	return records, nil
}

// InTestMode reports whether the tenant's callbacks go to the simulated bank.
func (s *Service) InTestMode(ctx context.Context, tenantID int64) (bool, error) {
	cfg, err := s.settings.Load(ctx, tenantID)
	if err != nil {
		return false, err
	}
	return !cfg.IsLive(), nil
}
