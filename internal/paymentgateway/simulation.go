package paymentgateway

import (
	"net/http"
	"net/url"

	paymentgatewaytypes "github.com/frahmantamala/feegateway/internal/core/datamodel/paymentgateway"
)

const SimulatedBankPath = "/payments/simulated-bank"

const (
	SimulationStatusSuccess = "success"
	SimulationStatusFailure = "failure"
	SimulationStatusPending = "pending"
)

var simulationCallbackFields = []string{"status", "orderId"}

var simulationStatus = statusMapping{
	success:  []string{SimulationStatusSuccess},
	pending:  []string{SimulationStatusPending},
	declined: []string{SimulationStatusFailure},
}

// SimulationAdapter sends the payer to the in-app simulated bank. It involves
// no cryptography and its results are always marked as simulated.
type SimulationAdapter struct {
	endpoint string
}

func NewSimulationAdapter(opts ...Option) *SimulationAdapter {
	return &SimulationAdapter{endpoint: buildOptions(SimulatedBankPath, opts).endpoint}
}

func (a *SimulationAdapter) Provider() paymentgatewaytypes.Provider {
	return paymentgatewaytypes.ProviderSimulation
}

func (a *SimulationAdapter) Initiate(req paymentgatewaytypes.PaymentRequest) (*paymentgatewaytypes.OutboundDescriptor, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	fields := map[string]string{
		"orderId":    req.OrderID,
		"amount":     req.FormattedAmount(),
		"payerName":  req.PayerName,
		"payerEmail": req.PayerEmail,
		"payerPhone": req.PayerPhone,
		"returnUrl":  req.ReturnURL,
	}

	endpoint := a.endpoint
	if endpoint == "" {
		endpoint = SimulatedBankPath
	}
	target, err := url.Parse(endpoint)
	if err != nil {
		return nil, &EncodingError{Provider: a.Provider(), Op: "parse simulated bank url", Err: err}
	}
	query := target.Query()
	for name, value := range fields {
		query.Set(name, value)
	}
	target.RawQuery = query.Encode()

	return &paymentgatewaytypes.OutboundDescriptor{
		TargetURL:  target.String(),
		HTTPMethod: http.MethodGet,
		FormFields: fields,
	}, nil
}

func (a *SimulationAdapter) Verify(payload paymentgatewaytypes.CallbackPayload) (*paymentgatewaytypes.VerificationResult, error) {
	result := newResult(a.Provider(), payload)
	result.Simulated = true

	var cb SimulationCallback
	if failure := decodeCallback(payload, &cb, simulationCallbackFields...); failure != nil {
		return rejectWith(result, failure), nil
	}
	result.OrderID = cb.OrderID
	result.TransactionID = cb.TransactionID
	if result.TransactionID == "" {
		result.TransactionID = "SIM-" + cb.OrderID
	}

	if cb.Amount != "" {
		amount, ok := parseAmount(cb.Amount)
		if !ok {
			return reject(result, paymentgatewaytypes.ReasonMalformedAmount, "Amount is not a valid decimal"), nil
		}
		result.Amount = amount
	}

	return settle(result, simulationStatus, cb.Status), nil
}

// SimulationCallbackQuery builds the query the simulated bank appends to the
// return URL.
func SimulationCallbackQuery(orderID, amount, status string) url.Values {
	query := url.Values{}
	query.Set("orderId", orderID)
	query.Set("status", status)
	query.Set("transactionId", "SIM-"+orderID)
	if amount != "" {
		query.Set("amount", amount)
	}
	return query
}
