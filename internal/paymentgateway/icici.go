package paymentgateway

import (
	"net/http"
	"strings"

	paymentgatewaytypes "github.com/frahmantamala/feegateway/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/feegateway/internal/paymentgateway/signing"
)

const ICICIEndpoint = "https://eazypay.icicibank.com/EazyPG"

const (
	iciciFieldMerchantID = "merchantid"
	iciciFieldEncData    = "encdata"
	iciciFieldEncResp    = "encresp"

	iciciResponseParts = 7
)

var iciciCallbackFields = []string{iciciFieldMerchantID, iciciFieldEncResp}

var iciciStatus = statusMapping{
	success:        []string{"0"},
	pending:        []string{"P"},
	declineUnknown: true,
}

// ICICIAdapter encrypts the whole request with AES-128-CBC under the merchant
// key. The response is decrypted with the same key and carries an inner
// SHA-256 checksum over its fields.
type ICICIAdapter struct {
	cfg      paymentgatewaytypes.GatewayConfig
	endpoint string
	cipher   signing.Cipher
}

func NewICICIAdapter(cfg paymentgatewaytypes.GatewayConfig, opts ...Option) (*ICICIAdapter, error) {
	provider := paymentgatewaytypes.ProviderICICI
	if err := requireCredentials(provider, cfg, credentialRequirement{merchantID: true}); err != nil {
		return nil, err
	}
	c, err := signing.NewAESCBC(cfg.SecretKey)
	if err != nil {
		return nil, &ConfigurationError{Provider: provider, Field: "secret_key", Err: err}
	}
	return &ICICIAdapter{
		cfg:      cfg,
		endpoint: buildOptions(ICICIEndpoint, opts).endpoint,
		cipher:   c,
	}, nil
}

func (a *ICICIAdapter) Provider() paymentgatewaytypes.Provider {
	return paymentgatewaytypes.ProviderICICI
}

func (a *ICICIAdapter) ready() error {
	if a.cipher == nil {
		return missingCredential(a.Provider(), "secret_key")
	}
	return nil
}

func (a *ICICIAdapter) Initiate(req paymentgatewaytypes.PaymentRequest) (*paymentgatewaytypes.OutboundDescriptor, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	plaintext := signing.Join("|",
		a.cfg.MerchantID,
		req.OrderID,
		req.FormattedAmount(),
		req.PayerName,
		req.PayerEmail,
		req.PayerPhone,
		req.ReturnURL,
	)
	encData, err := a.cipher.Encrypt([]byte(plaintext))
	if err != nil {
		return nil, &EncodingError{Provider: a.Provider(), Op: "encrypt request", Err: err}
	}

	return &paymentgatewaytypes.OutboundDescriptor{
		TargetURL:  a.endpoint,
		HTTPMethod: http.MethodPost,
		FormFields: map[string]string{
			iciciFieldMerchantID: a.cfg.MerchantID,
			iciciFieldEncData:    encData,
		},
	}, nil
}

func (a *ICICIAdapter) Verify(payload paymentgatewaytypes.CallbackPayload) (*paymentgatewaytypes.VerificationResult, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	result := newResult(a.Provider(), payload)

	var cb ICICICallback
	if failure := decodeCallback(payload, &cb, iciciCallbackFields...); failure != nil {
		return rejectWith(result, failure), nil
	}

	plain, err := a.cipher.Decrypt(cb.EncResp)
	if err != nil {
		return reject(result, paymentgatewaytypes.ReasonMalformedCiphertext, "Response could not be decrypted"), nil
	}

	parts := strings.Split(string(plain), "|")
	if len(parts) != iciciResponseParts {
		return reject(result, paymentgatewaytypes.ReasonMalformedPayload, "Decrypted response has an unexpected layout"), nil
	}
	merchantID, orderID, txnID, bankRef, rawAmount, status, checksum :=
		parts[0], parts[1], parts[2], parts[3], parts[4], parts[5], parts[6]

	result.OrderID = orderID
	result.TransactionID = txnID
	result.BankReference = bankRef

	expected := signing.Digest(signing.Join("|", parts[:iciciResponseParts-1]...), signing.Lower)
	if !signing.Equal(expected, checksum) {
		return reject(result, paymentgatewaytypes.ReasonSignatureMismatch, "Response checksum verification failed"), nil
	}
	result.SignatureValid = true

	if merchantID != a.cfg.MerchantID || cb.MerchantID != a.cfg.MerchantID {
		return reject(result, paymentgatewaytypes.ReasonMerchantMismatch, "Merchant id does not match configuration"), nil
	}

	amount, ok := parseAmount(rawAmount)
	if !ok {
		return reject(result, paymentgatewaytypes.ReasonMalformedAmount, "Amount is not a valid decimal"), nil
	}
	result.Amount = amount

	return settle(result, iciciStatus, status), nil
}
