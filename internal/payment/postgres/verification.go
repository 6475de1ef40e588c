package postgres

import (
	"context"
	"fmt"

	"github.com/frahmantamala/feegateway/internal/core/datamodel/payment"
	paymentpkg "github.com/frahmantamala/feegateway/internal/payment"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VerificationRepository is the append-only callback ledger. It only ever
// inserts; rows are never updated or deleted.
type VerificationRepository struct {
	db *gorm.DB
}

var _ paymentpkg.LedgerRepository = (*VerificationRepository)(nil)

func NewVerificationRepository(db *gorm.DB) *VerificationRepository {
	return &VerificationRepository{
		db: db,
	}
}

// Append inserts v and reports whether a row was written. A callback already
// stored for the same tenant and payload digest is left untouched.
func (r *VerificationRepository) Append(ctx context.Context, v *payment.Verification) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "payload_digest"}},
			DoNothing: true,
		}).
		Create(v)
	if result.Error != nil {
		return false, fmt.Errorf("append verification: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *VerificationRepository) ListByOrder(ctx context.Context, tenantID int64, orderID string) ([]*payment.Verification, error) {
	var records []*payment.Verification
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		Order("received_at ASC").
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list verifications: %w", err)
	}
	return records, nil
}
