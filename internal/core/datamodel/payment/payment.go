package payment

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	paymentgatewaytypes "github.com/frahmantamala/feegateway/internal/core/datamodel/paymentgateway"
)

// Verification is one row of the append-only callback ledger. Rows are never
// updated; a retried callback with the same payload is ignored.
type Verification struct {
	ID             int64           `gorm:"primaryKey"`
	TenantID       int64           `gorm:"column:tenant_id;not null;uniqueIndex:ux_payment_verifications_digest,priority:1;index:ix_payment_verifications_order,priority:1"`
	OrderID        string          `gorm:"column:order_id;not null;index:ix_payment_verifications_order,priority:2"`
	Provider       string          `gorm:"column:provider;not null"`
	Outcome        string          `gorm:"column:outcome;not null"`
	TransactionID  string          `gorm:"column:transaction_id"`
	BankReference  string          `gorm:"column:bank_reference"`
	Amount         decimal.Decimal `gorm:"column:amount;type:numeric(12,2)"`
	SignatureValid bool            `gorm:"column:signature_valid;not null"`
	Simulated      bool            `gorm:"column:simulated;not null"`
	FailureReason  *string         `gorm:"column:failure_reason"`
	FailureMessage *string         `gorm:"column:failure_message"`
	RawPayload     json.RawMessage `gorm:"column:raw_payload"`
	PayloadDigest  string          `gorm:"column:payload_digest;not null;uniqueIndex:ux_payment_verifications_digest,priority:2"`
	ReceivedAt     time.Time       `gorm:"column:received_at;not null"`
}

func (Verification) TableName() string {
	return "payment_verifications"
}

// NewVerification records result as received for tenantID at receivedAt.
func NewVerification(tenantID int64, result *paymentgatewaytypes.VerificationResult, receivedAt time.Time) (*Verification, error) {
	raw, err := json.Marshal(result.RawPayload)
	if err != nil {
		return nil, err
	}

	v := &Verification{
		TenantID:       tenantID,
		OrderID:        result.OrderID,
		Provider:       string(result.Provider),
		Outcome:        string(result.Outcome),
		TransactionID:  result.TransactionID,
		BankReference:  result.BankReference,
		Amount:         result.Amount,
		SignatureValid: result.SignatureValid,
		Simulated:      result.Simulated,
		RawPayload:     raw,
		PayloadDigest:  PayloadDigest(result.RawPayload),
		ReceivedAt:     receivedAt.UTC(),
	}
	if result.Reason != "" {
		reason := string(result.Reason)
		v.FailureReason = &reason
	}
	if result.Error != "" {
		message := result.Error
		v.FailureMessage = &message
	}
	return v, nil
}

// PayloadDigest identifies a callback by its exact content, independent of
// key order.
func PayloadDigest(payload map[string]string) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(payload[k]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
