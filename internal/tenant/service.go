package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	internal "github.com/frahmantamala/feegateway/internal"
	"github.com/frahmantamala/feegateway/internal/core/datamodel/tenant"
	paymentgatewaytypes "github.com/frahmantamala/feegateway/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/feegateway/pkg/logger"
)

var ErrSettingsNotFound = errors.New("payment settings not found")

type RepositoryAPI interface {
	Get(ctx context.Context, tenantID int64) (*tenant.PaymentSettings, error)
	Upsert(ctx context.Context, s *tenant.PaymentSettings) error
}

type SecretSealer interface {
	Seal(tenantID int64, plaintext string) (string, error)
	Open(tenantID int64, sealed string) (string, error)
}

// Service owns the per-tenant gateway settings. Nothing is cached, so a
// change is picked up by the next checkout or callback.
type Service struct {
	repo   RepositoryAPI
	sealer SecretSealer
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo RepositoryAPI, sealer SecretSealer, lg *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		sealer: sealer,
		logger: lg,
		now:    time.Now,
	}
}

// Load returns the tenant's gateway configuration with the secret unsealed.
func (s *Service) Load(ctx context.Context, tenantID int64) (paymentgatewaytypes.GatewayConfig, error) {
	row, err := s.repo.Get(ctx, tenantID)
	if err != nil {
		if errors.Is(err, ErrSettingsNotFound) {
			return paymentgatewaytypes.GatewayConfig{}, internal.ErrTenantNotConfigured
		}
		return paymentgatewaytypes.GatewayConfig{}, internal.NewInternalError("Failed to load payment settings", err)
	}

	cfg := paymentgatewaytypes.GatewayConfig{
		Provider:   paymentgatewaytypes.ParseProvider(row.Provider),
		MerchantID: row.MerchantID,
		AccessCode: row.AccessCode,
	}
	if row.TestMode.Valid {
		testMode := row.TestMode.Bool
		cfg.TestMode = &testMode
	}

	if row.SecretSealed != "" {
		secret, err := s.sealer.Open(tenantID, row.SecretSealed)
		if err != nil {
			logger.Enrich(ctx, s.logger).Error("failed to unseal gateway secret", "tenant_id", tenantID, "error", err)
			return paymentgatewaytypes.GatewayConfig{}, internal.NewConfigurationError("Payment gateway is not configured for this school", internal.ErrCodeTenantNotConfigured)
		}
		cfg.SecretKey = secret
	}

	return cfg, nil
}

// Save seals the secret and replaces the tenant's settings.
func (s *Service) Save(ctx context.Context, tenantID int64, dto *SaveSettingsDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	row := &tenant.PaymentSettings{
		TenantID:   tenantID,
		Provider:   string(paymentgatewaytypes.ParseProvider(dto.Provider)),
		MerchantID: dto.MerchantID,
		AccessCode: dto.AccessCode,
		UpdatedAt:  s.now().UTC(),
	}
	if dto.TestMode != nil {
		row.TestMode.Valid = true
		row.TestMode.Bool = *dto.TestMode
	}

	// An omitted secret keeps the stored one.
	if dto.SecretKey != "" {
		sealed, err := s.sealer.Seal(tenantID, dto.SecretKey)
		if err != nil {
			return internal.NewInternalError("Failed to save payment settings", fmt.Errorf("seal secret: %w", err))
		}
		row.SecretSealed = sealed
	} else {
		existing, err := s.repo.Get(ctx, tenantID)
		switch {
		case err == nil:
			row.SecretSealed = existing.SecretSealed
		case !errors.Is(err, ErrSettingsNotFound):
			return internal.NewInternalError("Failed to save payment settings", err)
		}
	}

	if err := s.repo.Upsert(ctx, row); err != nil {
		return internal.NewInternalError("Failed to save payment settings", err)
	}

	logger.Enrich(ctx, s.logger).Info("payment settings saved",
		"tenant_id", tenantID,
		"provider", row.Provider,
		"test_mode", row.TestMode.Valid && row.TestMode.Bool)
	return nil
}

// View returns the settings with credentials masked.
func (s *Service) View(ctx context.Context, tenantID int64) (*SettingsView, error) {
	cfg, err := s.Load(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return NewSettingsView(cfg), nil
}
