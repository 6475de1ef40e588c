package paymentgateway

import (
	"net/http"

	paymentgatewaytypes "github.com/frahmantamala/feegateway/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/feegateway/internal/paymentgateway/signing"
)

const AxisEndpoint = "https://easypay.axisbank.co.in/index.php/api/payment"

const axisFieldHash = "Hash"

var (
	axisRequestOrder  = []string{"MerchantId", "OrderId", "Amount", "Currency", "CustomerEmail", "CustomerMobile", "ReturnURL"}
	axisCallbackOrder = []string{"MerchantId", "OrderId", "TransactionId", "BankReference", "Amount", "Status"}

	axisCallbackFields = append(append([]string{}, axisCallbackOrder...), axisFieldHash)
)

var axisStatus = statusMapping{
	success:        []string{"TXN_SUCCESS"},
	pending:        []string{"PENDING"},
	declineUnknown: true,
}

// AxisAdapter signs a fixed field sequence with HMAC-SHA512, uppercase hex.
type AxisAdapter struct {
	cfg      paymentgatewaytypes.GatewayConfig
	endpoint string
	signer   signing.Signer
}

func NewAxisAdapter(cfg paymentgatewaytypes.GatewayConfig, opts ...Option) (*AxisAdapter, error) {
	if err := requireCredentials(paymentgatewaytypes.ProviderAxis, cfg, credentialRequirement{merchantID: true}); err != nil {
		return nil, err
	}
	return &AxisAdapter{
		cfg:      cfg,
		endpoint: buildOptions(AxisEndpoint, opts).endpoint,
		signer:   signing.NewHMACSHA512(cfg.SecretKey, signing.Upper),
	}, nil
}

func (a *AxisAdapter) Provider() paymentgatewaytypes.Provider {
	return paymentgatewaytypes.ProviderAxis
}

func (a *AxisAdapter) ready() error {
	if a.signer == nil {
		return missingCredential(a.Provider(), "secret_key")
	}
	return nil
}

func (a *AxisAdapter) Initiate(req paymentgatewaytypes.PaymentRequest) (*paymentgatewaytypes.OutboundDescriptor, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	fields := map[string]string{
		"MerchantId":     a.cfg.MerchantID,
		"OrderId":        req.OrderID,
		"Amount":         req.FormattedAmount(),
		"Currency":       currencyINR,
		"CustomerName":   req.PayerName,
		"CustomerEmail":  req.PayerEmail,
		"CustomerMobile": req.PayerPhone,
		"ReturnURL":      req.ReturnURL,
	}
	canonical, err := signing.OrderedCanonical(fields, axisRequestOrder, "|")
	if err != nil {
		return nil, &EncodingError{Provider: a.Provider(), Op: "build hash", Err: err}
	}
	fields[axisFieldHash] = a.signer.Sign(canonical)

	return &paymentgatewaytypes.OutboundDescriptor{
		TargetURL:  a.endpoint,
		HTTPMethod: http.MethodPost,
		FormFields: fields,
	}, nil
}

func (a *AxisAdapter) Verify(payload paymentgatewaytypes.CallbackPayload) (*paymentgatewaytypes.VerificationResult, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	result := newResult(a.Provider(), payload)

	var cb AxisCallback
	if failure := decodeCallback(payload, &cb, axisCallbackFields...); failure != nil {
		return rejectWith(result, failure), nil
	}
	result.OrderID = cb.OrderID
	result.TransactionID = cb.TransactionID
	result.BankReference = cb.BankReference

	canonical, err := signing.OrderedCanonical(payload, axisCallbackOrder, "|")
	if err != nil {
		return reject(result, paymentgatewaytypes.ReasonMissingField, err.Error()), nil
	}
	if !signing.Verify(a.signer, canonical, cb.Hash) {
		return reject(result, paymentgatewaytypes.ReasonSignatureMismatch, "Hash verification failed"), nil
	}
	result.SignatureValid = true

	if cb.MerchantID != a.cfg.MerchantID {
		return reject(result, paymentgatewaytypes.ReasonMerchantMismatch, "Merchant id does not match configuration"), nil
	}

	amount, ok := parseAmount(cb.Amount)
	if !ok {
		return reject(result, paymentgatewaytypes.ReasonMalformedAmount, "Amount is not a valid decimal"), nil
	}
	result.Amount = amount

	return settle(result, axisStatus, cb.Status), nil
}
