package events

import (
	"time"

	"github.com/google/uuid"

	paymentgatewaytypes "github.com/frahmantamala/feegateway/internal/core/datamodel/paymentgateway"
)

const (
	EventTypePaymentVerified = "payment.verified"
	EventTypePaymentRejected = "payment.rejected"
)

// PaymentVerifiedEvent is published for every callback whose signature held,
// whatever the bank's outcome.
type PaymentVerifiedEvent struct {
	BaseEvent
	TenantID      int64  `json:"tenant_id"`
	OrderID       string `json:"order_id"`
	Provider      string `json:"provider"`
	Outcome       string `json:"outcome"`
	TransactionID string `json:"transaction_id"`
	BankReference string `json:"bank_reference"`
	Amount        string `json:"amount"`
	Simulated     bool   `json:"simulated"`
}

func NewPaymentVerifiedEvent(tenantID int64, result *paymentgatewaytypes.VerificationResult) *PaymentVerifiedEvent {
	amount := result.Amount.StringFixed(2)
	return &PaymentVerifiedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentVerified,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"tenant_id":      tenantID,
				"order_id":       result.OrderID,
				"provider":       string(result.Provider),
				"outcome":        string(result.Outcome),
				"transaction_id": result.TransactionID,
				"amount":         amount,
				"simulated":      result.Simulated,
			},
		},
		TenantID:      tenantID,
		OrderID:       result.OrderID,
		Provider:      string(result.Provider),
		Outcome:       string(result.Outcome),
		TransactionID: result.TransactionID,
		BankReference: result.BankReference,
		Amount:        amount,
		Simulated:     result.Simulated,
	}
}

// PaymentRejectedEvent is published when a callback could not be trusted.
type PaymentRejectedEvent struct {
	BaseEvent
	TenantID int64  `json:"tenant_id"`
	OrderID  string `json:"order_id"`
	Provider string `json:"provider"`
	Reason   string `json:"reason"`
	Message  string `json:"message"`
}

func NewPaymentRejectedEvent(tenantID int64, result *paymentgatewaytypes.VerificationResult) *PaymentRejectedEvent {
	return &PaymentRejectedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentRejected,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"tenant_id": tenantID,
				"order_id":  result.OrderID,
				"provider":  string(result.Provider),
				"reason":    string(result.Reason),
			},
		},
		TenantID: tenantID,
		OrderID:  result.OrderID,
		Provider: string(result.Provider),
		Reason:   string(result.Reason),
		Message:  result.Error,
	}
}
