package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/feegateway/internal/core/datamodel/tenant"
	tenantpkg "github.com/frahmantamala/feegateway/internal/tenant"
)

const (
	selectSettings = `
SELECT tenant_id, provider, merchant_id, secret_sealed, access_code, test_mode, updated_at
FROM tenant_payment_settings
WHERE tenant_id = ?`

	upsertSettings = `
INSERT INTO tenant_payment_settings (tenant_id, provider, merchant_id, secret_sealed, access_code, test_mode, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (tenant_id) DO UPDATE SET
  provider = excluded.provider,
  merchant_id = excluded.merchant_id,
  secret_sealed = excluded.secret_sealed,
  access_code = excluded.access_code,
  test_mode = excluded.test_mode,
  updated_at = excluded.updated_at`
)

type SettingsRepository struct {
	db *sqlx.DB
}

var _ tenantpkg.RepositoryAPI = (*SettingsRepository)(nil)

func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns tenantpkg.ErrSettingsNotFound when the tenant has no row.
func (r *SettingsRepository) Get(ctx context.Context, tenantID int64) (*tenant.PaymentSettings, error) {
	var s tenant.PaymentSettings
	if err := r.db.GetContext(ctx, &s, r.db.Rebind(selectSettings), tenantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tenantpkg.ErrSettingsNotFound
		}
		return nil, fmt.Errorf("get payment settings: %w", err)
	}
	return &s, nil
}

func (r *SettingsRepository) Upsert(ctx context.Context, s *tenant.PaymentSettings) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(upsertSettings),
		s.TenantID, s.Provider, s.MerchantID, s.SecretSealed, s.AccessCode, s.TestMode, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert payment settings: %w", err)
	}
	return nil
}
