package payment

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	errors "github.com/frahmantamala/feegateway/internal"
	paymentgatewaytypes "github.com/frahmantamala/feegateway/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/feegateway/internal/transport"
	"github.com/go-chi/chi"
)

const maxCheckoutBody = 16 << 10

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger),
		Service:     service,
	}
}

// Checkout handles POST /api/v1/checkouts
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := errors.TenantIDFromContext(r.Context())
	if !ok {
		h.Logger.Error("Checkout: tenant not found in context")
		h.HandleError(w, errors.ErrInvalidToken)
		return
	}

	var req paymentgatewaytypes.PaymentRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCheckoutBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		h.Logger.Debug("Checkout: invalid request body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	resp, err := h.Service.Checkout(r.Context(), tenantID, req)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, resp)
}

// History handles GET /api/v1/checkouts/{orderID}/verifications
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := errors.TenantIDFromContext(r.Context())
	if !ok {
		h.Logger.Error("History: tenant not found in context")
		h.HandleError(w, errors.ErrInvalidToken)
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		h.HandleError(w, errors.NewValidationFieldError("order_id", "order_id is required", errors.ErrCodeInvalidOrder))
		return
	}

	records, err := h.Service.History(r.Context(), tenantID, orderID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, NewHistoryResponse(orderID, records))
}
