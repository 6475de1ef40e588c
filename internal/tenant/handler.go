package tenant

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	errors "github.com/frahmantamala/feegateway/internal"
	"github.com/frahmantamala/feegateway/internal/transport"
)

const maxSettingsBody = 8 << 10

type ServiceAPI interface {
	Save(ctx context.Context, tenantID int64, dto *SaveSettingsDTO) error
	View(ctx context.Context, tenantID int64) (*SettingsView, error)
}

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

// GetSettings handles GET /api/v1/settings/payment
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := errors.TenantIDFromContext(r.Context())
	if !ok {
		h.HandleError(w, errors.ErrInvalidToken)
		return
	}

	view, err := h.Service.View(r.Context(), tenantID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, view)
}

// SaveSettings handles PUT /api/v1/settings/payment
func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := errors.TenantIDFromContext(r.Context())
	if !ok {
		h.HandleError(w, errors.ErrInvalidToken)
		return
	}

	var dto SaveSettingsDTO
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSettingsBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&dto); err != nil {
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	if err := h.Service.Save(r.Context(), tenantID, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	view, err := h.Service.View(r.Context(), tenantID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, view)
}
