package payment

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	errors "github.com/frahmantamala/feegateway/internal"
	paymentgatewaytypes "github.com/frahmantamala/feegateway/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/feegateway/internal/paymentgateway"
	"github.com/frahmantamala/feegateway/internal/transport"
	"github.com/go-chi/chi"
)

const maxCallbackBody = 64 << 10

// WebhookHandler receives bank callbacks and serves the simulated bank. These
// routes are reached by banks and payers, never with a service token.
type WebhookHandler struct {
	*transport.BaseHandler
	paymentService ServiceAPI
}

func NewWebhookHandler(baseHandler *transport.BaseHandler, paymentService ServiceAPI) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler:    baseHandler,
		paymentService: paymentService,
	}
}

// HandlePaymentCallback handles GET|POST /api/v1/payment/callback/{tenantID}
func (h *WebhookHandler) HandlePaymentCallback(w http.ResponseWriter, r *http.Request) {
	tenantID, appErr := tenantFromPath(r)
	if appErr != nil {
		h.HandleError(w, appErr)
		return
	}

	payload, err := readCallbackPayload(w, r)
	if err != nil {
		h.Logger.Debug("invalid payment callback body", "tenant_id", tenantID, "error", err)
		h.HandleError(w, errors.NewValidationError("invalid callback body", errors.ErrCodeInvalidCallback))
		return
	}

	h.Logger.Info("received payment callback", "tenant_id", tenantID, "fields", len(payload))

	outcome, err := h.paymentService.HandleCallback(r.Context(), tenantID, payload)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, NewCallbackResponse(outcome))
}

// SimulatedBank handles GET /api/v1/payments/simulated-bank/{tenantID}. It
// settles the payment immediately and sends the payer back to the school.
func (h *WebhookHandler) SimulatedBank(w http.ResponseWriter, r *http.Request) {
	tenantID, appErr := tenantFromPath(r)
	if appErr != nil {
		h.HandleError(w, appErr)
		return
	}

	testMode, err := h.paymentService.InTestMode(r.Context(), tenantID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if !testMode {
		h.Logger.Warn("simulated bank requested for live tenant", "tenant_id", tenantID)
		h.HandleError(w, errors.ErrSimulationDisabled)
		return
	}

	query := r.URL.Query()
	returnURL, err := url.Parse(query.Get("returnUrl"))
	if err != nil || !returnURL.IsAbs() || (returnURL.Scheme != "http" && returnURL.Scheme != "https") {
		h.HandleError(w, errors.NewValidationFieldError("returnUrl", "returnUrl must be an absolute http(s) URL", errors.ErrCodeInvalidReturnURL))
		return
	}

	orderID := strings.TrimSpace(query.Get("orderId"))
	if orderID == "" {
		h.HandleError(w, errors.NewValidationFieldError("orderId", "orderId is required", errors.ErrCodeInvalidOrder))
		return
	}

	status := query.Get("status")
	if status == "" {
		status = paymentgateway.SimulationStatusSuccess
	}
	callback := paymentgateway.SimulationCallbackQuery(orderID, query.Get("amount"), status)

	if _, err := h.paymentService.HandleCallback(r.Context(), tenantID, paymentgatewaytypes.CallbackPayloadFromValues(callback)); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	merged := returnURL.Query()
	for key, values := range callback {
		merged[key] = values
	}
	returnURL.RawQuery = merged.Encode()

	http.Redirect(w, r, returnURL.String(), http.StatusSeeOther)
}

func tenantFromPath(r *http.Request) (int64, *errors.AppError) {
	tenantID, err := strconv.ParseInt(chi.URLParam(r, "tenantID"), 10, 64)
	if err != nil || tenantID <= 0 {
		return 0, errors.NewValidationFieldError("tenant_id", "tenant_id must be a positive integer", errors.ErrCodeInvalidTenant)
	}
	return tenantID, nil
}

// readCallbackPayload accepts the three shapes banks use: a query string, a
// url-encoded form and a flat JSON object.
func readCallbackPayload(w http.ResponseWriter, r *http.Request) (paymentgatewaytypes.CallbackPayload, error) {
	if r.Method == http.MethodGet {
		return paymentgatewaytypes.CallbackPayloadFromValues(r.URL.Query()), nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCallbackBody)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		return decodeJSONPayload(r)
	}

	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}
	return paymentgatewaytypes.CallbackPayloadFromValues(r.Form), nil
}

func decodeJSONPayload(r *http.Request) (paymentgatewaytypes.CallbackPayload, error) {
	var body map[string]interface{}
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&body); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	payload := make(paymentgatewaytypes.CallbackPayload, len(body))
	for key, value := range body {
		switch v := value.(type) {
		case string:
			payload[key] = v
		case json.Number:
			payload[key] = v.String()
		case bool:
			payload[key] = strconv.FormatBool(v)
		case nil:
			payload[key] = ""
		default:
			return nil, fmt.Errorf("field %q is not a scalar", key)
		}
	}
	return payload, nil
}
