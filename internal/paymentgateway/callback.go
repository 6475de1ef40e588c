package paymentgateway

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	paymentgatewaytypes "github.com/frahmantamala/feegateway/internal/core/datamodel/paymentgateway"
)

// Callback is a bank callback parsed into its provider's fields. Only the
// types in this package implement it.
type Callback interface {
	callbackProvider() paymentgatewaytypes.Provider
}

type ICICICallback struct {
	MerchantID string `mapstructure:"merchantid"`
	EncResp    string `mapstructure:"encresp"`
}

type HDFCCallback struct {
	MerchantID  string `mapstructure:"merchant_id"`
	OrderID     string `mapstructure:"order_id"`
	TrackingID  string `mapstructure:"tracking_id"`
	BankRefNo   string `mapstructure:"bank_ref_no"`
	OrderStatus string `mapstructure:"order_status"`
	Amount      string `mapstructure:"amount"`
	Signature   string `mapstructure:"signature"`
}

type SBICallback struct {
	OrderID  string `mapstructure:"order_id"`
	TxnID    string `mapstructure:"txn_id"`
	SBIRefNo string `mapstructure:"sbi_ref_no"`
	Amount   string `mapstructure:"amount"`
	Status   string `mapstructure:"status"`
	Checksum string `mapstructure:"checksum"`
}

type AxisCallback struct {
	MerchantID    string `mapstructure:"MerchantId"`
	OrderID       string `mapstructure:"OrderId"`
	TransactionID string `mapstructure:"TransactionId"`
	BankReference string `mapstructure:"BankReference"`
	Amount        string `mapstructure:"Amount"`
	Status        string `mapstructure:"Status"`
	Hash          string `mapstructure:"Hash"`
}

type SimulationCallback struct {
	Status        string `mapstructure:"status"`
	OrderID       string `mapstructure:"orderId"`
	TransactionID string `mapstructure:"transactionId"`
	Amount        string `mapstructure:"amount"`
}

func (ICICICallback) callbackProvider() paymentgatewaytypes.Provider {
	return paymentgatewaytypes.ProviderICICI
}

func (HDFCCallback) callbackProvider() paymentgatewaytypes.Provider {
	return paymentgatewaytypes.ProviderHDFC
}

func (SBICallback) callbackProvider() paymentgatewaytypes.Provider {
	return paymentgatewaytypes.ProviderSBI
}

func (AxisCallback) callbackProvider() paymentgatewaytypes.Provider {
	return paymentgatewaytypes.ProviderAxis
}

func (SimulationCallback) callbackProvider() paymentgatewaytypes.Provider {
	return paymentgatewaytypes.ProviderSimulation
}

// decodeCallback checks that every required key is present in the raw map and
// then decodes it into out. Field names are matched exactly.
func decodeCallback(payload paymentgatewaytypes.CallbackPayload, out Callback, required ...string) *VerificationError {
	for _, name := range required {
		if _, ok := payload[name]; !ok {
			return &VerificationError{
				Reason:  paymentgatewaytypes.ReasonMissingField,
				Message: fmt.Sprintf("Missing required field %q", name),
			}
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:    out,
		MatchName: func(mapKey, fieldName string) bool { return mapKey == fieldName },
	})
	if err != nil {
		return &VerificationError{Reason: paymentgatewaytypes.ReasonMalformedPayload, Message: "Callback could not be parsed"}
	}
	if err := decoder.Decode(map[string]string(payload)); err != nil {
		return &VerificationError{Reason: paymentgatewaytypes.ReasonMalformedPayload, Message: "Callback could not be parsed"}
	}
	return nil
}

// ParseCallback decodes a raw payload into the typed callback for provider.
func ParseCallback(provider paymentgatewaytypes.Provider, payload paymentgatewaytypes.CallbackPayload) (Callback, error) {
	var (
		cb       Callback
		required []string
	)
	switch provider {
	case paymentgatewaytypes.ProviderICICI:
		cb, required = &ICICICallback{}, iciciCallbackFields
	case paymentgatewaytypes.ProviderHDFC:
		cb, required = &HDFCCallback{}, hdfcCallbackFields
	case paymentgatewaytypes.ProviderSBI:
		cb, required = &SBICallback{}, sbiCallbackFields
	case paymentgatewaytypes.ProviderAxis:
		cb, required = &AxisCallback{}, axisCallbackFields
	case paymentgatewaytypes.ProviderSimulation:
		cb, required = &SimulationCallback{}, simulationCallbackFields
	default:
		return nil, &ConfigurationError{Provider: provider, Err: ErrUnknownProvider}
	}
	if failure := decodeCallback(payload, cb, required...); failure != nil {
		return nil, failure
	}
	return cb, nil
}
