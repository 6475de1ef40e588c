package tenant_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	internal "github.com/frahmantamala/feegateway/internal"
	"github.com/frahmantamala/feegateway/internal/tenant"
)

type mockSettingsService struct {
	saved    *tenant.SaveSettingsDTO
	saveErr  error
	view     *tenant.SettingsView
	viewErr  error
	tenantID int64
}

func (m *mockSettingsService) Save(ctx context.Context, tenantID int64, dto *tenant.SaveSettingsDTO) error {
	m.tenantID = tenantID
	m.saved = dto
	return m.saveErr
}

func (m *mockSettingsService) View(ctx context.Context, tenantID int64) (*tenant.SettingsView, error) {
	m.tenantID = tenantID
	return m.view, m.viewErr
}

var _ = Describe("Handler", func() {
	var (
		service *mockSettingsService
		handler *tenant.Handler
	)

	BeforeEach(func() {
		service = &mockSettingsService{
			view: &tenant.SettingsView{Provider: "hdfc", MerchantID: "HDFC-M1", HasSecretKey: true, EffectiveMode: "live"},
		}
		handler = tenant.NewHandler(service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	withTenant := func(req *http.Request, tenantID int64) *http.Request {
		return req.WithContext(internal.ContextWithTenantID(req.Context(), tenantID))
	}

	Describe("GetSettings", func() {
		It("returns the masked view for the token's tenant", func() {
			// Given an authenticated request
			req := withTenant(httptest.NewRequest(http.MethodGet, "/api/v1/settings/payment", nil), 42)
			rec := httptest.NewRecorder()

			// When fetching settings
			handler.GetSettings(rec, req)

			// Then the view is returned for tenant 42
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(service.tenantID).To(Equal(int64(42)))
			var view tenant.SettingsView
			Expect(json.Unmarshal(rec.Body.Bytes(), &view)).To(Succeed())
			Expect(view.MerchantID).To(Equal("HDFC-M1"))
			Expect(view.EffectiveMode).To(Equal("live"))
		})

		It("maps an unconfigured tenant to 503", func() {
			service.viewErr = internal.ErrTenantNotConfigured
			req := withTenant(httptest.NewRequest(http.MethodGet, "/api/v1/settings/payment", nil), 42)
			rec := httptest.NewRecorder()

			handler.GetSettings(rec, req)

			Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
			Expect(rec.Body.String()).To(ContainSubstring("TENANT_NOT_CONFIGURED"))
		})

		It("rejects requests without a tenant", func() {
			rec := httptest.NewRecorder()

			handler.GetSettings(rec, httptest.NewRequest(http.MethodGet, "/api/v1/settings/payment", nil))

			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("SaveSettings", func() {
		It("saves and echoes the settings", func() {
			// Given a valid body
			body := `{"provider":"hdfc","merchant_id":"HDFC-M1","secret_key":"s3cret","test_mode":false}`
			req := withTenant(httptest.NewRequest(http.MethodPut, "/api/v1/settings/payment", strings.NewReader(body)), 42)
			rec := httptest.NewRecorder()

			// When saving
			handler.SaveSettings(rec, req)

			// Then the service receives the decoded settings
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(service.saved).NotTo(BeNil())
			Expect(service.saved.Provider).To(Equal("hdfc"))
			Expect(service.saved.SecretKey).To(Equal("s3cret"))
			Expect(service.saved.TestMode).NotTo(BeNil())
			Expect(*service.saved.TestMode).To(BeFalse())
			Expect(rec.Body.String()).NotTo(ContainSubstring("s3cret"))
		})

		It("rejects unknown fields", func() {
			body := `{"provider":"hdfc","webhook":"https://evil.example.com"}`
			req := withTenant(httptest.NewRequest(http.MethodPut, "/api/v1/settings/payment", strings.NewReader(body)), 42)
			rec := httptest.NewRecorder()

			handler.SaveSettings(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(service.saved).To(BeNil())
		})

		It("passes validation errors through", func() {
			service.saveErr = internal.NewValidationFieldError("provider", "provider is required", internal.ErrCodeValidationFailed)
			req := withTenant(httptest.NewRequest(http.MethodPut, "/api/v1/settings/payment", strings.NewReader(`{}`)), 42)
			rec := httptest.NewRecorder()

			handler.SaveSettings(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(rec.Body.String()).To(ContainSubstring("provider"))
		})
	})
})
