package paymentgateway

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	errors "github.com/frahmantamala/feegateway/internal"
	"github.com/frahmantamala/feegateway/internal/core/common/validation"
	"github.com/shopspring/decimal"
)

type Provider string

const (
	ProviderICICI      Provider = "icici"
	ProviderHDFC       Provider = "hdfc"
	ProviderSBI        Provider = "sbi"
	ProviderAxis       Provider = "axis"
	ProviderSimulation Provider = "simulation"
)

// ParseProvider normalizes a provider name. Unknown names are returned as-is so
// the factory can reject them explicitly.
func ParseProvider(s string) Provider {
	return Provider(strings.ToLower(strings.TrimSpace(s)))
}

func (p Provider) IsLive() bool {
	switch p {
	case ProviderICICI, ProviderHDFC, ProviderSBI, ProviderAxis:
		return true
	}
	return false
}

type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailed  Outcome = "FAILED"
	OutcomePending Outcome = "PENDING"
)

type FailureReason string

const (
	ReasonMissingField        FailureReason = "MISSING_FIELD"
	ReasonSignatureMismatch   FailureReason = "SIGNATURE_MISMATCH"
	ReasonMalformedCiphertext FailureReason = "MALFORMED_CIPHERTEXT"
	ReasonMalformedPayload    FailureReason = "MALFORMED_PAYLOAD"
	ReasonMalformedAmount     FailureReason = "MALFORMED_AMOUNT"
	ReasonMerchantMismatch    FailureReason = "MERCHANT_MISMATCH"
	ReasonDeclined            FailureReason = "DECLINED"
	ReasonUnknownStatus       FailureReason = "UNKNOWN_STATUS"
)

// GatewayConfig is the per-tenant gateway configuration. TestMode is nil when
// the tenant never set it, which routes to simulation.
type GatewayConfig struct {
	MerchantID string
	SecretKey  string
	AccessCode string
	Provider   Provider
	TestMode   *bool
}

// IsLive reports whether the tenant explicitly disabled test mode.
func (c GatewayConfig) IsLive() bool {
	return c.TestMode != nil && !*c.TestMode
}

func (c GatewayConfig) String() string {
	return fmt.Sprintf("GatewayConfig{provider=%s merchant_id=%s secret_key=%s access_code=%s test_mode=%s}",
		c.Provider, c.MerchantID, redact(c.SecretKey), mask(c.AccessCode), testModeString(c.TestMode))
}

func (c GatewayConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("provider", string(c.Provider)),
		slog.String("merchant_id", c.MerchantID),
		slog.String("secret_key", redact(c.SecretKey)),
		slog.String("access_code", mask(c.AccessCode)),
		slog.String("test_mode", testModeString(c.TestMode)),
	)
}

func redact(s string) string {
	if s == "" {
		return "<empty>"
	}
	return "[REDACTED]"
}

func mask(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

func testModeString(b *bool) string {
	if b == nil {
		return "unset"
	}
	return fmt.Sprintf("%t", *b)
}

type PaymentRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	OrderID    string          `json:"order_id"`
	PayerName  string          `json:"payer_name"`
	PayerEmail string          `json:"payer_email"`
	PayerPhone string          `json:"payer_phone"`
	ReturnURL  string          `json:"return_url"`
}

// canonicalDelimiters are characters providers use to join canonical strings.
const canonicalDelimiters = "|"

func (r *PaymentRequest) Validate() error {
	validator := validation.NewValidator()

	validator.Field("amount", r.Amount).
		PositiveDecimal(errors.ErrCodeInvalidAmount).
		MaxDecimalPlaces(2, errors.ErrCodeInvalidAmount)
	validator.Field("order_id", r.OrderID).
		Required().
		MaxLength(40).
		ExcludesChars(canonicalDelimiters, errors.ErrCodeInvalidOrder)
	validator.Field("payer_name", r.PayerName).
		Required().
		MaxLength(100).
		ExcludesChars(canonicalDelimiters, errors.ErrCodeInvalidPayer)
	validator.Field("payer_email", r.PayerEmail).
		Required().
		Email(errors.ErrCodeInvalidPayer).
		ExcludesChars(canonicalDelimiters, errors.ErrCodeInvalidPayer)
	validator.Field("payer_phone", r.PayerPhone).
		Required().
		MaxLength(20).
		ExcludesChars(canonicalDelimiters, errors.ErrCodeInvalidPayer)
	validator.Field("return_url", r.ReturnURL).
		Required().
		AbsoluteURL(errors.ErrCodeInvalidReturnURL).
		ExcludesChars(canonicalDelimiters, errors.ErrCodeInvalidReturnURL)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// FormattedAmount renders the amount the way every provider expects it on the wire.
func (r *PaymentRequest) FormattedAmount() string {
	return r.Amount.StringFixed(2)
}

type OutboundDescriptor struct {
	TargetURL  string            `json:"target_url"`
	HTTPMethod string            `json:"http_method"`
	FormFields map[string]string `json:"form_fields"`
}

func (d *OutboundDescriptor) IsPost() bool {
	return d.HTTPMethod == http.MethodPost
}

// CallbackPayload is the raw, untrusted key/value map a bank sends back.
type CallbackPayload map[string]string

// CallbackPayloadFromValues keeps the first value of every key.
func CallbackPayloadFromValues(values url.Values) CallbackPayload {
	payload := make(CallbackPayload, len(values))
	for key, vals := range values {
		if len(vals) > 0 {
			payload[key] = vals[0]
		}
	}
	return payload
}

func (p CallbackPayload) Clone() CallbackPayload {
	clone := make(CallbackPayload, len(p))
	for k, v := range p {
		clone[k] = v
	}
	return clone
}

type VerificationResult struct {
	Provider       Provider        `json:"provider"`
	Outcome        Outcome         `json:"outcome"`
	OrderID        string          `json:"order_id"`
	TransactionID  string          `json:"transaction_id"`
	BankReference  string          `json:"bank_reference,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	RawPayload     CallbackPayload `json:"raw_payload"`
	SignatureValid bool            `json:"signature_valid"`
	Simulated      bool            `json:"simulated"`
	Reason         FailureReason   `json:"reason,omitempty"`
	Error          string          `json:"error,omitempty"`
}

func (r *VerificationResult) Succeeded() bool {
	return r.Outcome == OutcomeSuccess
}

// VerificationError describes why a callback was rejected. It travels inside
// the result rather than as a returned error.
type VerificationError struct {
	Reason  FailureReason
	Message string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// Failure returns the typed rejection for a failed result and nil otherwise.
func (r *VerificationResult) Failure() *VerificationError {
	if r.Outcome != OutcomeFailed {
		return nil
	}
	return &VerificationError{Reason: r.Reason, Message: r.Error}
}
