package paymentgateway

import (
	"errors"
	"fmt"

	paymentgatewaytypes "github.com/frahmantamala/feegateway/internal/core/datamodel/paymentgateway"
)

var (
	ErrMissingCredential = errors.New("missing gateway credential")
	ErrInvalidCredential = errors.New("gateway credential contains a reserved character")
	ErrUnknownProvider   = errors.New("unknown payment provider")
)

// ConfigurationError means the tenant's gateway settings cannot produce a
// working adapter. It never carries secret values.
type ConfigurationError struct {
	Provider paymentgatewaytypes.Provider
	Field    string
	Err      error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("paymentgateway: %s: %v", providerLabel(e.Provider), e.Err)
	}
	return fmt.Sprintf("paymentgateway: %s: %s: %v", providerLabel(e.Provider), e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// EncodingError is a local failure while building an outbound payload.
type EncodingError struct {
	Provider paymentgatewaytypes.Provider
	Op       string
	Err      error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("paymentgateway: %s: %s: %v", providerLabel(e.Provider), e.Op, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// GatewayError is for callers that talk to a bank directly. Adapters never
// return it.
type GatewayError struct {
	Provider   paymentgatewaytypes.Provider
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("paymentgateway: %s: status %d: %v", providerLabel(e.Provider), e.StatusCode, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

type VerificationError = paymentgatewaytypes.VerificationError

func missingCredential(provider paymentgatewaytypes.Provider, field string) *ConfigurationError {
	return &ConfigurationError{Provider: provider, Field: field, Err: ErrMissingCredential}
}

func invalidCredential(provider paymentgatewaytypes.Provider, field string) *ConfigurationError {
	return &ConfigurationError{Provider: provider, Field: field, Err: ErrInvalidCredential}
}

func providerLabel(p paymentgatewaytypes.Provider) string {
	if p == "" {
		return "<none>"
	}
	return string(p)
}
