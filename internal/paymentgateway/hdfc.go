package paymentgateway

import (
	"net/http"

	paymentgatewaytypes "github.com/frahmantamala/feegateway/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/feegateway/internal/paymentgateway/signing"
)

const HDFCEndpoint = "https://secure.hdfcbank.com/pgway/transaction"

const hdfcFieldSignature = "signature"

var hdfcCallbackFields = []string{"order_id", "order_status", "amount", hdfcFieldSignature}

var hdfcStatus = statusMapping{
	success:  []string{"Success"},
	pending:  []string{"Awaited", "Initiated"},
	declined: []string{"Failure", "Aborted", "Invalid"},
}

// HDFCAdapter signs every form field, sorted by name, with HMAC-SHA256.
type HDFCAdapter struct {
	cfg      paymentgatewaytypes.GatewayConfig
	endpoint string
	signer   signing.Signer
}

func NewHDFCAdapter(cfg paymentgatewaytypes.GatewayConfig, opts ...Option) (*HDFCAdapter, error) {
	err := requireCredentials(paymentgatewaytypes.ProviderHDFC, cfg, credentialRequirement{merchantID: true, accessCode: true})
	if err != nil {
		return nil, err
	}
	return &HDFCAdapter{
		cfg:      cfg,
		endpoint: buildOptions(HDFCEndpoint, opts).endpoint,
		signer:   signing.NewHMACSHA256(cfg.SecretKey, signing.Lower),
	}, nil
}

func (a *HDFCAdapter) Provider() paymentgatewaytypes.Provider {
	return paymentgatewaytypes.ProviderHDFC
}

func (a *HDFCAdapter) ready() error {
	if a.signer == nil {
		return missingCredential(a.Provider(), "secret_key")
	}
	return nil
}

func (a *HDFCAdapter) Initiate(req paymentgatewaytypes.PaymentRequest) (*paymentgatewaytypes.OutboundDescriptor, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	fields := map[string]string{
		"merchant_id":   a.cfg.MerchantID,
		"access_code":   a.cfg.AccessCode,
		"order_id":      req.OrderID,
		"amount":        req.FormattedAmount(),
		"currency":      currencyINR,
		"billing_name":  req.PayerName,
		"billing_email": req.PayerEmail,
		"billing_tel":   req.PayerPhone,
		"redirect_url":  req.ReturnURL,
		"cancel_url":    req.ReturnURL,
	}
	fields[hdfcFieldSignature] = a.signer.Sign(signing.SortedCanonical(fields, "|", hdfcFieldSignature))

	return &paymentgatewaytypes.OutboundDescriptor{
		TargetURL:  a.endpoint,
		HTTPMethod: http.MethodPost,
		FormFields: fields,
	}, nil
}

// Verify covers every echoed field with the signature, not only the ones the
// adapter reads.
func (a *HDFCAdapter) Verify(payload paymentgatewaytypes.CallbackPayload) (*paymentgatewaytypes.VerificationResult, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	result := newResult(a.Provider(), payload)

	var cb HDFCCallback
	if failure := decodeCallback(payload, &cb, hdfcCallbackFields...); failure != nil {
		return rejectWith(result, failure), nil
	}
	result.OrderID = cb.OrderID
	result.TransactionID = cb.TrackingID
	result.BankReference = cb.BankRefNo

	canonical := signing.SortedCanonical(payload, "|", hdfcFieldSignature)
	if !signing.Verify(a.signer, canonical, cb.Signature) {
		return reject(result, paymentgatewaytypes.ReasonSignatureMismatch, "Signature verification failed"), nil
	}
	result.SignatureValid = true

	if _, echoed := payload["merchant_id"]; echoed && cb.MerchantID != a.cfg.MerchantID {
		return reject(result, paymentgatewaytypes.ReasonMerchantMismatch, "Merchant id does not match configuration"), nil
	}

	amount, ok := parseAmount(cb.Amount)
	if !ok {
		return reject(result, paymentgatewaytypes.ReasonMalformedAmount, "Amount is not a valid decimal"), nil
	}
	result.Amount = amount

	return settle(result, hdfcStatus, cb.OrderStatus), nil
}
