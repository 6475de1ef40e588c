package tenant_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	internal "github.com/frahmantamala/feegateway/internal"
	datamodel "github.com/frahmantamala/feegateway/internal/core/datamodel/tenant"
	paymentgatewaytypes "github.com/frahmantamala/feegateway/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/feegateway/internal/tenant"
)

type memoryRepo struct {
	rows   map[int64]datamodel.PaymentSettings
	getErr error
}

func (m *memoryRepo) Get(ctx context.Context, tenantID int64) (*datamodel.PaymentSettings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	row, ok := m.rows[tenantID]
	if !ok {
		return nil, tenant.ErrSettingsNotFound
	}
	return &row, nil
}

func (m *memoryRepo) Upsert(ctx context.Context, s *datamodel.PaymentSettings) error {
	m.rows[s.TenantID] = *s
	return nil
}

func boolPtr(b bool) *bool {
	return &b
}

var _ = Describe("Service", func() {
	var (
		repo    *memoryRepo
		service *tenant.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		sealer, err := tenant.NewSealer("settings-key-for-tests")
		Expect(err).NotTo(HaveOccurred())
		repo = &memoryRepo{rows: make(map[int64]datamodel.PaymentSettings)}
		service = tenant.NewService(repo, sealer, slog.New(slog.NewTextHandler(io.Discard, nil)))
		ctx = context.Background()
	})

	Describe("Load", func() {
		It("should report an unconfigured tenant", func() {
			_, err := service.Load(ctx, 5)
			Expect(err).To(Equal(internal.ErrTenantNotConfigured))
		})

		It("should wrap repository failures", func() {
			repo.getErr = errors.New("connection reset")
			_, err := service.Load(ctx, 5)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(http.StatusInternalServerError))
		})

		It("should refuse a secret it cannot unseal", func() {
			// Given
			repo.rows[5] = datamodel.PaymentSettings{TenantID: 5, Provider: "icici", SecretSealed: "tampered"}

			// When
			_, err := service.Load(ctx, 5)

			// Then
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeTenantNotConfigured))
		})
	})

	Describe("Save", func() {
		It("should seal the secret and load it back", func() {
			// Given
			dto := &tenant.SaveSettingsDTO{Provider: "ICICI", MerchantID: "M1", SecretKey: "s3cret", TestMode: boolPtr(false)}

			// When
			Expect(service.Save(ctx, 5, dto)).To(Succeed())
			cfg, err := service.Load(ctx, 5)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.rows[5].SecretSealed).NotTo(ContainSubstring("s3cret"))
			Expect(cfg.Provider).To(Equal(paymentgatewaytypes.ProviderICICI))
			Expect(cfg.SecretKey).To(Equal("s3cret"))
			Expect(cfg.IsLive()).To(BeTrue())
		})

		It("should keep test mode unset when omitted", func() {
			Expect(service.Save(ctx, 5, &tenant.SaveSettingsDTO{Provider: "hdfc"})).To(Succeed())
			cfg, err := service.Load(ctx, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.TestMode).To(BeNil())
			Expect(cfg.IsLive()).To(BeFalse())
		})

		It("should keep the stored secret when none is sent", func() {
			// Given
			Expect(service.Save(ctx, 5, &tenant.SaveSettingsDTO{Provider: "sbi", SecretKey: "first"})).To(Succeed())

			// When
			Expect(service.Save(ctx, 5, &tenant.SaveSettingsDTO{Provider: "sbi", MerchantID: "M2"})).To(Succeed())

			// Then
			cfg, err := service.Load(ctx, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.SecretKey).To(Equal("first"))
			Expect(cfg.MerchantID).To(Equal("M2"))
		})

		DescribeTable("should reject invalid settings",
			func(dto *tenant.SaveSettingsDTO) {
				err := service.Save(ctx, 5, dto)
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(repo.rows).To(BeEmpty())
			},
			Entry("missing provider", &tenant.SaveSettingsDTO{}),
			Entry("unsupported provider", &tenant.SaveSettingsDTO{Provider: "paytm"}),
			Entry("simulation is not a stored provider", &tenant.SaveSettingsDTO{Provider: "simulation"}),
			Entry("pipe in merchant id", &tenant.SaveSettingsDTO{Provider: "icici", MerchantID: "M1|EVIL", SecretKey: "k"}),
			Entry("pipe in access code", &tenant.SaveSettingsDTO{Provider: "hdfc", MerchantID: "M1", AccessCode: "AC|1", SecretKey: "k"}),
		)
	})

	Describe("View", func() {
		It("should never expose the secret", func() {
			// Given
			Expect(service.Save(ctx, 5, &tenant.SaveSettingsDTO{Provider: "hdfc", MerchantID: "M1", SecretKey: "s3cret", AccessCode: "ACCESS-1234"})).To(Succeed())

			// When
			view, err := service.View(ctx, 5)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(view.HasSecretKey).To(BeTrue())
			Expect(view.AccessCode).To(Equal("*******1234"))
			Expect(view.EffectiveMode).To(Equal("simulation"))
		})
	})
})
