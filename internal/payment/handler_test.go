package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	internal "github.com/frahmantamala/feegateway/internal"
	"github.com/frahmantamala/feegateway/internal/core/datamodel/payment"
	paymentgatewaytypes "github.com/frahmantamala/feegateway/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/feegateway/internal/transport"
)

type mockService struct {
	checkoutReq     paymentgatewaytypes.PaymentRequest
	checkoutResp    *CheckoutResponse
	checkoutErr     error
	callbackTenant  int64
	callbackPayload paymentgatewaytypes.CallbackPayload
	callbackOutcome *CallbackOutcome
	callbackErr     error
	history         []*payment.Verification
	historyErr      error
	testMode        bool
	testModeErr     error
}

func (m *mockService) Checkout(ctx context.Context, id int64, req paymentgatewaytypes.PaymentRequest) (*CheckoutResponse, error) {
	m.checkoutReq = req
	return m.checkoutResp, m.checkoutErr
}

func (m *mockService) HandleCallback(ctx context.Context, id int64, payload paymentgatewaytypes.CallbackPayload) (*CallbackOutcome, error) {
	m.callbackTenant = id
	m.callbackPayload = payload
	return m.callbackOutcome, m.callbackErr
}

func (m *mockService) History(ctx context.Context, id int64, orderID string) ([]*payment.Verification, error) {
	return m.history, m.historyErr
}

func (m *mockService) InTestMode(ctx context.Context, id int64) (bool, error) {
	return m.testMode, m.testModeErr
}

func newTestRouter(svc *mockService) *chi.Mux {
	handler := NewHandler(svc, discardLogger())
	webhook := NewWebhookHandler(transport.NewBaseHandler(discardLogger()), svc)

	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("X-Test-Tenant") != "" {
					r = r.WithContext(internal.ContextWithTenantID(r.Context(), tenantID))
				}
				next.ServeHTTP(w, r)
			})
		})
		r.Post("/checkouts", handler.Checkout)
		r.Get("/checkouts/{orderID}/verifications", handler.History)
	})
	router.Get("/payment/callback/{tenantID}", webhook.HandlePaymentCallback)
	router.Post("/payment/callback/{tenantID}", webhook.HandlePaymentCallback)
	router.Get("/payments/simulated-bank/{tenantID}", webhook.SimulatedBank)
	return router
}

func decodeBody(rec *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(gomega.Succeed())
	return body
}

func errorCode(rec *httptest.ResponseRecorder) string {
	body := decodeBody(rec)
	gomega.Expect(body).To(gomega.HaveKey("error"))
	return body["error"].(map[string]interface{})["code"].(string)
}

var _ = ginkgo.Describe("Handler", func() {
	var (
		svc    *mockService
		router *chi.Mux
		rec    *httptest.ResponseRecorder
	)

	ginkgo.BeforeEach(func() {
		svc = &mockService{}
		router = newTestRouter(svc)
		rec = httptest.NewRecorder()
	})

	ginkgo.Describe("Checkout", func() {
		ginkgo.It("should return the outbound descriptor", func() {
			// Given
			svc.checkoutResp = &CheckoutResponse{Provider: "hdfc", TargetURL: "https://bank", HTTPMethod: http.MethodPost, FormFields: map[string]string{"amount": "1250.50"}}
			body := `{"amount":"1250.50","order_id":"FEE-1","payer_name":"Asha Rao","payer_email":"parent@example.com","payer_phone":"9876543210","return_url":"https://school.example.com/return"}`
			req := httptest.NewRequest(http.MethodPost, "/checkouts", strings.NewReader(body))
			req.Header.Set("X-Test-Tenant", "1")

			// When
			router.ServeHTTP(rec, req)

			// Then
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusCreated))
			gomega.Expect(svc.checkoutReq.OrderID).To(gomega.Equal("FEE-1"))
			gomega.Expect(svc.checkoutReq.Amount.Equal(decimal.RequireFromString("1250.5"))).To(gomega.BeTrue())
			gomega.Expect(decodeBody(rec)).To(gomega.HaveKeyWithValue("target_url", "https://bank"))
		})

		ginkgo.It("should reject a request without a tenant", func() {
			// Given
			req := httptest.NewRequest(http.MethodPost, "/checkouts", strings.NewReader(`{}`))

			// When
			router.ServeHTTP(rec, req)

			// Then
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("should reject unknown fields", func() {
			// Given
			req := httptest.NewRequest(http.MethodPost, "/checkouts", strings.NewReader(`{"amount":"1","secret_key":"x"}`))
			req.Header.Set("X-Test-Tenant", "1")

			// When
			router.ServeHTTP(rec, req)

			// Then
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
			gomega.Expect(errorCode(rec)).To(gomega.Equal(string(internal.ErrCodeValidationFailed)))
		})

		ginkgo.It("should map service errors to their status", func() {
			// Given
			svc.checkoutErr = internal.NewUnavailableError("Payment is temporarily unavailable", internal.ErrCodePaymentUnavailable, nil)
			req := httptest.NewRequest(http.MethodPost, "/checkouts", strings.NewReader(`{"amount":"1"}`))
			req.Header.Set("X-Test-Tenant", "1")

			// When
			router.ServeHTTP(rec, req)

			// Then
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusServiceUnavailable))
			gomega.Expect(errorCode(rec)).To(gomega.Equal(string(internal.ErrCodePaymentUnavailable)))
		})
	})

	ginkgo.Describe("History", func() {
		ginkgo.It("should render ledger rows", func() {
			// Given
			reason := "DECLINED"
			svc.history = []*payment.Verification{{
				ID:            3,
				OrderID:       "FEE-1",
				Provider:      "sbi",
				Outcome:       "FAILED",
				Amount:        decimal.RequireFromString("10"),
				FailureReason: &reason,
				ReceivedAt:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			}}
			req := httptest.NewRequest(http.MethodGet, "/checkouts/FEE-1/verifications", nil)
			req.Header.Set("X-Test-Tenant", "1")

			// When
			router.ServeHTTP(rec, req)

			// Then
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			var resp HistoryResponse
			gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(gomega.Succeed())
			gomega.Expect(resp.OrderID).To(gomega.Equal("FEE-1"))
			gomega.Expect(resp.Verifications).To(gomega.HaveLen(1))
			gomega.Expect(resp.Verifications[0].Amount).To(gomega.Equal("10.00"))
			gomega.Expect(resp.Verifications[0].FailureReason).To(gomega.Equal("DECLINED"))
		})

		ginkgo.It("should return 404 for an unknown order", func() {
			// Given
			svc.historyErr = internal.ErrOrderNotFound
			req := httptest.NewRequest(http.MethodGet, "/checkouts/FEE-404/verifications", nil)
			req.Header.Set("X-Test-Tenant", "1")

			// When
			router.ServeHTTP(rec, req)

			// Then
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNotFound))
		})
	})
})

var _ = ginkgo.Describe("WebhookHandler", func() {
	var (
		svc    *mockService
		router *chi.Mux
		rec    *httptest.ResponseRecorder
	)

	ginkgo.BeforeEach(func() {
		svc = &mockService{callbackOutcome: &CallbackOutcome{Result: &paymentgatewaytypes.VerificationResult{
			OrderID: "FEE-1",
			Outcome: paymentgatewaytypes.OutcomeSuccess,
		}}}
		router = newTestRouter(svc)
		rec = httptest.NewRecorder()
	})

	ginkgo.Describe("HandlePaymentCallback", func() {
		ginkgo.It("should read a url-encoded form", func() {
			// Given
			form := url.Values{"merchantid": {"M1"}, "encresp": {"abc+/="}}
			req := httptest.NewRequest(http.MethodPost, "/payment/callback/12", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			// When
			router.ServeHTTP(rec, req)

			// Then
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(svc.callbackTenant).To(gomega.Equal(int64(12)))
			gomega.Expect(svc.callbackPayload).To(gomega.Equal(paymentgatewaytypes.CallbackPayload{"merchantid": "M1", "encresp": "abc+/="}))
			gomega.Expect(decodeBody(rec)).To(gomega.HaveKeyWithValue("status", "accepted"))
		})

		ginkgo.It("should read a query string", func() {
			// Given
			req := httptest.NewRequest(http.MethodGet, "/payment/callback/12?orderId=FEE-1&status=success", nil)

			// When
			router.ServeHTTP(rec, req)

			// Then
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(svc.callbackPayload).To(gomega.HaveKeyWithValue("status", "success"))
		})

		ginkgo.It("should flatten a JSON object without losing number precision", func() {
			// Given
			req := httptest.NewRequest(http.MethodPost, "/payment/callback/12", strings.NewReader(`{"OrderId":"FEE-1","Amount":1250.50,"Refund":false}`))
			req.Header.Set("Content-Type", "application/json; charset=utf-8")

			// When
			router.ServeHTTP(rec, req)

			// Then
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(svc.callbackPayload).To(gomega.Equal(paymentgatewaytypes.CallbackPayload{
				"OrderId": "FEE-1",
				"Amount":  "1250.50",
				"Refund":  "false",
			}))
		})

		ginkgo.It("should reject nested JSON", func() {
			// Given
			req := httptest.NewRequest(http.MethodPost, "/payment/callback/12", strings.NewReader(`{"order":{"id":"1"}}`))
			req.Header.Set("Content-Type", "application/json")

			// When
			router.ServeHTTP(rec, req)

			// Then
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
			gomega.Expect(errorCode(rec)).To(gomega.Equal(string(internal.ErrCodeInvalidCallback)))
		})

		ginkgo.It("should acknowledge a forged callback as rejected", func() {
			// Given
			svc.callbackOutcome = &CallbackOutcome{Result: &paymentgatewaytypes.VerificationResult{
				OrderID: "FEE-1",
				Outcome: paymentgatewaytypes.OutcomeFailed,
				Reason:  paymentgatewaytypes.ReasonSignatureMismatch,
			}}
			req := httptest.NewRequest(http.MethodGet, "/payment/callback/12?orderId=FEE-1", nil)

			// When
			router.ServeHTTP(rec, req)

			// Then
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			body := decodeBody(rec)
			gomega.Expect(body).To(gomega.HaveKeyWithValue("status", "rejected"))
			gomega.Expect(body).To(gomega.HaveKeyWithValue("reason", "SIGNATURE_MISMATCH"))
		})

		ginkgo.It("should reject a non-numeric tenant", func() {
			// Given
			req := httptest.NewRequest(http.MethodGet, "/payment/callback/abc", nil)

			// When
			router.ServeHTTP(rec, req)

			// Then
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
		})
	})

	ginkgo.Describe("SimulatedBank", func() {
		ginkgo.It("should settle the payment and redirect to the return URL", func() {
			// Given
			svc.testMode = true
			req := httptest.NewRequest(http.MethodGet, "/payments/simulated-bank/12?orderId=FEE-1&amount=1250.50&returnUrl="+url.QueryEscape("https://school.example.com/return?ref=abc"), nil)

			// When
			router.ServeHTTP(rec, req)

			// Then
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusSeeOther))
			gomega.Expect(svc.callbackPayload).To(gomega.HaveKeyWithValue("status", "success"))
			gomega.Expect(svc.callbackPayload).To(gomega.HaveKeyWithValue("orderId", "FEE-1"))

			location, err := url.Parse(rec.Header().Get("Location"))
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(location.Host).To(gomega.Equal("school.example.com"))
			gomega.Expect(location.Query().Get("ref")).To(gomega.Equal("abc"))
			gomega.Expect(location.Query().Get("status")).To(gomega.Equal("success"))
			gomega.Expect(location.Query().Get("transactionId")).To(gomega.Equal("SIM-FEE-1"))
		})

		ginkgo.It("should honour a requested failure", func() {
			// Given
			svc.testMode = true
			req := httptest.NewRequest(http.MethodGet, "/payments/simulated-bank/12?orderId=FEE-1&status=failure&returnUrl="+url.QueryEscape("https://school.example.com/return"), nil)

			// When
			router.ServeHTTP(rec, req)

			// Then
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusSeeOther))
			gomega.Expect(svc.callbackPayload).To(gomega.HaveKeyWithValue("status", "failure"))
		})

		ginkgo.It("should not answer for a live tenant", func() {
			// Given
			svc.testMode = false
			req := httptest.NewRequest(http.MethodGet, "/payments/simulated-bank/12?orderId=FEE-1&returnUrl="+url.QueryEscape("https://school.example.com/return"), nil)

			// When
			router.ServeHTTP(rec, req)

			// Then
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNotFound))
			gomega.Expect(svc.callbackPayload).To(gomega.BeNil())
		})

		ginkgo.It("should refuse a relative return URL", func() {
			// Given
			svc.testMode = true
			req := httptest.NewRequest(http.MethodGet, "/payments/simulated-bank/12?orderId=FEE-1&returnUrl=%2Fevil", nil)

			// When
			router.ServeHTTP(rec, req)

			// Then
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
			gomega.Expect(svc.callbackPayload).To(gomega.BeNil())
		})

		ginkgo.DescribeTable("should refuse a missing order id",
			func(query string) {
				// Given
				svc.testMode = true
				req := httptest.NewRequest(http.MethodGet, "/payments/simulated-bank/12?"+query+"returnUrl="+url.QueryEscape("https://school.example.com/return"), nil)

				// When
				router.ServeHTTP(rec, req)

				// Then
				gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
				gomega.Expect(errorCode(rec)).To(gomega.Equal(string(internal.ErrCodeInvalidOrder)))
				gomega.Expect(svc.callbackPayload).To(gomega.BeNil())
			},
			ginkgo.Entry("absent", ""),
			ginkgo.Entry("empty", "orderId=&"),
			ginkgo.Entry("blank", "orderId=%20%20&"),
		)
	})
})
