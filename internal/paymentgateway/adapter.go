// Package paymentgateway turns a fee payment request into the form a bank
// expects and checks what the bank sends back. Adapters are pure: they hold
// immutable configuration and never perform I/O, so one instance can be
// shared by any number of goroutines.
package paymentgateway

import (
	"strings"

	"github.com/shopspring/decimal"

	paymentgatewaytypes "github.com/frahmantamala/feegateway/internal/core/datamodel/paymentgateway"
)

const currencyINR = "INR"

// Adapter is the contract every provider fulfils.
//
// Initiate checks credentials first, then the request, then encodes. Verify
// only returns an error for local configuration problems; anything wrong with
// the callback itself is reported as a FAILED result.
type Adapter interface {
	Provider() paymentgatewaytypes.Provider
	Initiate(req paymentgatewaytypes.PaymentRequest) (*paymentgatewaytypes.OutboundDescriptor, error)
	Verify(payload paymentgatewaytypes.CallbackPayload) (*paymentgatewaytypes.VerificationResult, error)
}

type adapterOptions struct {
	endpoint string
}

type Option func(*adapterOptions)

// WithEndpoint replaces the provider's production URL, typically with a UAT host.
func WithEndpoint(url string) Option {
	return func(o *adapterOptions) {
		o.endpoint = url
	}
}

func buildOptions(defaultEndpoint string, opts []Option) adapterOptions {
	o := adapterOptions{endpoint: defaultEndpoint}
	for _, opt := range opts {
		opt(&o)
	}
	if o.endpoint == "" {
		o.endpoint = defaultEndpoint
	}
	return o
}

type credentialRequirement struct {
	merchantID bool
	accessCode bool
}

func requireCredentials(provider paymentgatewaytypes.Provider, cfg paymentgatewaytypes.GatewayConfig, req credentialRequirement) error {
	if cfg.SecretKey == "" {
		return missingCredential(provider, "secret_key")
	}
	if req.merchantID && cfg.MerchantID == "" {
		return missingCredential(provider, "merchant_id")
	}
	if req.accessCode && cfg.AccessCode == "" {
		return missingCredential(provider, "access_code")
	}
	// Both values end up inside pipe-delimited canonical strings.
	if strings.Contains(cfg.MerchantID, "|") {
		return invalidCredential(provider, "merchant_id")
	}
	if strings.Contains(cfg.AccessCode, "|") {
		return invalidCredential(provider, "access_code")
	}
	return nil
}

func newResult(provider paymentgatewaytypes.Provider, payload paymentgatewaytypes.CallbackPayload) *paymentgatewaytypes.VerificationResult {
	return &paymentgatewaytypes.VerificationResult{
		Provider:   provider,
		Outcome:    paymentgatewaytypes.OutcomeFailed,
		RawPayload: payload.Clone(),
	}
}

func reject(result *paymentgatewaytypes.VerificationResult, reason paymentgatewaytypes.FailureReason, message string) *paymentgatewaytypes.VerificationResult {
	result.Outcome = paymentgatewaytypes.OutcomeFailed
	result.Reason = reason
	result.Error = message
	return result
}

func rejectWith(result *paymentgatewaytypes.VerificationResult, failure *VerificationError) *paymentgatewaytypes.VerificationResult {
	return reject(result, failure.Reason, failure.Message)
}

// settle records the bank's outcome on a result whose signature already checked out.
func settle(result *paymentgatewaytypes.VerificationResult, status statusMapping, raw string) *paymentgatewaytypes.VerificationResult {
	outcome, reason := status.resolve(raw)
	result.Outcome = outcome
	switch reason {
	case paymentgatewaytypes.ReasonDeclined:
		result.Reason = reason
		result.Error = "Payment declined by bank with status " + quoted(raw)
	case paymentgatewaytypes.ReasonUnknownStatus:
		result.Reason = reason
		result.Error = "Unrecognised payment status " + quoted(raw)
	}
	return result
}

// statusMapping maps a provider's status vocabulary. Matching is exact.
type statusMapping struct {
	success  []string
	pending  []string
	declined []string
	// declineUnknown treats anything unlisted as a decline instead of an
	// unknown status.
	declineUnknown bool
}

func (m statusMapping) resolve(raw string) (paymentgatewaytypes.Outcome, paymentgatewaytypes.FailureReason) {
	switch {
	case contains(m.success, raw):
		return paymentgatewaytypes.OutcomeSuccess, ""
	case contains(m.pending, raw):
		return paymentgatewaytypes.OutcomePending, ""
	case contains(m.declined, raw), m.declineUnknown:
		return paymentgatewaytypes.OutcomeFailed, paymentgatewaytypes.ReasonDeclined
	}
	return paymentgatewaytypes.OutcomeFailed, paymentgatewaytypes.ReasonUnknownStatus
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func quoted(s string) string {
	return "\"" + s + "\""
}

// parseAmount accepts a positive amount in plain decimal notation only.
func parseAmount(raw string) (decimal.Decimal, bool) {
	if raw == "" {
		return decimal.Zero, false
	}
	for _, r := range raw {
		if (r < '0' || r > '9') && r != '.' && r != '-' {
			return decimal.Zero, false
		}
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, false
	}
	return amount, true
}
