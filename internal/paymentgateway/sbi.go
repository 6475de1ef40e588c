package paymentgateway

import (
	"net/http"

	paymentgatewaytypes "github.com/frahmantamala/feegateway/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/feegateway/internal/paymentgateway/signing"
)

const SBIEndpoint = "https://merchant.onlinesbi.sbi/merchant/merchantprelogin.htm"

const sbiFieldChecksum = "checksum"

var (
	sbiRequestOrder  = []string{"merchant_code", "order_id", "amount", "currency", "return_url"}
	sbiCallbackOrder = []string{"order_id", "txn_id", "sbi_ref_no", "amount", "status"}

	sbiCallbackFields = append(append([]string{}, sbiCallbackOrder...), sbiFieldChecksum)
)

var sbiStatus = statusMapping{
	success:  []string{"SUCCESS"},
	pending:  []string{"PENDING"},
	declined: []string{"FAILURE", "FAILED", "CANCELLED"},
}

// SBIAdapter uses a keyed SHA-256 checksum: the secret is appended to a fixed
// field sequence before hashing.
type SBIAdapter struct {
	cfg      paymentgatewaytypes.GatewayConfig
	endpoint string
	signer   signing.Signer
}

func NewSBIAdapter(cfg paymentgatewaytypes.GatewayConfig, opts ...Option) (*SBIAdapter, error) {
	if err := requireCredentials(paymentgatewaytypes.ProviderSBI, cfg, credentialRequirement{merchantID: true}); err != nil {
		return nil, err
	}
	return &SBIAdapter{
		cfg:      cfg,
		endpoint: buildOptions(SBIEndpoint, opts).endpoint,
		signer:   signing.NewKeyedSHA256(cfg.SecretKey, "|", signing.Upper),
	}, nil
}

func (a *SBIAdapter) Provider() paymentgatewaytypes.Provider {
	return paymentgatewaytypes.ProviderSBI
}

func (a *SBIAdapter) ready() error {
	if a.signer == nil {
		return missingCredential(a.Provider(), "secret_key")
	}
	return nil
}

func (a *SBIAdapter) Initiate(req paymentgatewaytypes.PaymentRequest) (*paymentgatewaytypes.OutboundDescriptor, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	fields := map[string]string{
		"merchant_code": a.cfg.MerchantID,
		"order_id":      req.OrderID,
		"amount":        req.FormattedAmount(),
		"currency":      currencyINR,
		"return_url":    req.ReturnURL,
		"payer_name":    req.PayerName,
		"payer_email":   req.PayerEmail,
		"payer_mobile":  req.PayerPhone,
	}
	canonical, err := signing.OrderedCanonical(fields, sbiRequestOrder, "|")
	if err != nil {
		return nil, &EncodingError{Provider: a.Provider(), Op: "build checksum", Err: err}
	}
	fields[sbiFieldChecksum] = a.signer.Sign(canonical)

	return &paymentgatewaytypes.OutboundDescriptor{
		TargetURL:  a.endpoint,
		HTTPMethod: http.MethodPost,
		FormFields: fields,
	}, nil
}

func (a *SBIAdapter) Verify(payload paymentgatewaytypes.CallbackPayload) (*paymentgatewaytypes.VerificationResult, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	result := newResult(a.Provider(), payload)

	var cb SBICallback
	if failure := decodeCallback(payload, &cb, sbiCallbackFields...); failure != nil {
		return rejectWith(result, failure), nil
	}
	result.OrderID = cb.OrderID
	result.TransactionID = cb.TxnID
	result.BankReference = cb.SBIRefNo

	canonical, err := signing.OrderedCanonical(payload, sbiCallbackOrder, "|")
	if err != nil {
		return reject(result, paymentgatewaytypes.ReasonMissingField, err.Error()), nil
	}
	if !signing.Verify(a.signer, canonical, cb.Checksum) {
		return reject(result, paymentgatewaytypes.ReasonSignatureMismatch, "Checksum verification failed"), nil
	}
	result.SignatureValid = true

	amount, ok := parseAmount(cb.Amount)
	if !ok {
		return reject(result, paymentgatewaytypes.ReasonMalformedAmount, "Amount is not a valid decimal"), nil
	}
	result.Amount = amount

	return settle(result, sbiStatus, cb.Status), nil
}
