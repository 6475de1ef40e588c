package payment

import (
	"time"

	"github.com/frahmantamala/feegateway/internal/core/datamodel/payment"
	paymentgatewaytypes "github.com/frahmantamala/feegateway/internal/core/datamodel/paymentgateway"
)

// CheckoutResponse tells the caller where to send the payer.
type CheckoutResponse struct {
	Provider   string            `json:"provider"`
	Simulated  bool              `json:"simulated"`
	TargetURL  string            `json:"target_url"`
	HTTPMethod string            `json:"http_method"`
	FormFields map[string]string `json:"form_fields"`
}

type CallbackOutcome struct {
	Result    *paymentgatewaytypes.VerificationResult
	RecordID  int64
	Duplicate bool
}

// CallbackResponse is what the bank sees. Rejections are acknowledged with
// 200 so banks do not retry forged payloads.
type CallbackResponse struct {
	Status    string `json:"status"`
	OrderID   string `json:"order_id,omitempty"`
	Outcome   string `json:"outcome"`
	Reason    string `json:"reason,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

func NewCallbackResponse(outcome *CallbackOutcome) CallbackResponse {
	status := "accepted"
	if !Trusted(outcome.Result) {
		status = "rejected"
	}
	return CallbackResponse{
		Status:    status,
		OrderID:   outcome.Result.OrderID,
		Outcome:   string(outcome.Result.Outcome),
		Reason:    string(outcome.Result.Reason),
		Duplicate: outcome.Duplicate,
	}
}

type VerificationView struct {
	ID             int64     `json:"id"`
	OrderID        string    `json:"order_id"`
	Provider       string    `json:"provider"`
	Outcome        string    `json:"outcome"`
	TransactionID  string    `json:"transaction_id,omitempty"`
	BankReference  string    `json:"bank_reference,omitempty"`
	Amount         string    `json:"amount"`
	SignatureValid bool      `json:"signature_valid"`
	Simulated      bool      `json:"simulated"`
	FailureReason  string    `json:"failure_reason,omitempty"`
	FailureMessage string    `json:"failure_message,omitempty"`
	ReceivedAt     time.Time `json:"received_at"`
}

type HistoryResponse struct {
	OrderID       string             `json:"order_id"`
	Verifications []VerificationView `json:"verifications"`
}

func NewHistoryResponse(orderID string, records []*payment.Verification) HistoryResponse {
	views := make([]VerificationView, len(records))
	for i, r := range records {
		views[i] = VerificationView{
			ID:             r.ID,
			OrderID:        r.OrderID,
			Provider:       r.Provider,
			Outcome:        r.Outcome,
			TransactionID:  r.TransactionID,
			BankReference:  r.BankReference,
			Amount:         r.Amount.StringFixed(2),
			SignatureValid: r.SignatureValid,
			Simulated:      r.Simulated,
			ReceivedAt:     r.ReceivedAt,
		}
		if r.FailureReason != nil {
			views[i].FailureReason = *r.FailureReason
		}
		if r.FailureMessage != nil {
			views[i].FailureMessage = *r.FailureMessage
		}
	}
	return HistoryResponse{OrderID: orderID, Verifications: views}
}
