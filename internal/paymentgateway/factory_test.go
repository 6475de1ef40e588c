package paymentgateway_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	paymentgatewaytypes "github.com/frahmantamala/feegateway/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/feegateway/internal/paymentgateway"
)

var _ = Describe("Factory", func() {
	var factory *paymentgateway.Factory

	BeforeEach(func() {
		factory = paymentgateway.NewFactory()
	})

	providerNames := []string{"icici", "hdfc", "sbi", "axis", "simulation", "paytm", "", "ICICI"}

	Context("when the tenant is in test mode", func() {
		for _, name := range providerNames {
			name := name
			It("returns the simulation adapter for provider "+name, func() {
				for _, testMode := range []*bool{nil, boolPtr(true)} {
					cfg := paymentgatewaytypes.GatewayConfig{
						Provider: paymentgatewaytypes.Provider(name),
						TestMode: testMode,
					}

					adapter, err := factory.Adapter(cfg)
					Expect(err).ToNot(HaveOccurred())
					Expect(adapter).To(BeAssignableToTypeOf(&paymentgateway.SimulationAdapter{}))
					Expect(adapter.Provider()).To(Equal(paymentgatewaytypes.ProviderSimulation))
				}
			})
		}

		It("does not need any credentials", func() {
			adapter, err := factory.For(paymentgatewaytypes.ProviderICICI, paymentgatewaytypes.GatewayConfig{})
			Expect(err).ToNot(HaveOccurred())

			_, err = adapter.Initiate(sampleRequest())
			Expect(err).ToNot(HaveOccurred())
		})

		It("points simulation at the configured simulated bank", func() {
			factory = paymentgateway.NewFactory(paymentgateway.WithSimulatedBankURL("https://fees.example.com/api/v1/payments/simulated-bank"))
			adapter, _ := factory.Adapter(paymentgatewaytypes.GatewayConfig{})

			descriptor, err := adapter.Initiate(sampleRequest())
			Expect(err).ToNot(HaveOccurred())
			Expect(descriptor.TargetURL).To(HavePrefix("https://fees.example.com/api/v1/payments/simulated-bank?"))
		})
	})

	Context("when the tenant is live", func() {
		DescribeTable("returns the adapter for the provider",
			func(provider string, expected paymentgateway.Adapter) {
				cfg := liveConfig(paymentgatewaytypes.Provider(provider), "secret")

				adapter, err := factory.Adapter(cfg)
				Expect(err).ToNot(HaveOccurred())
				Expect(adapter).To(BeAssignableToTypeOf(expected))
			},
			Entry("icici", "icici", &paymentgateway.ICICIAdapter{}),
			Entry("hdfc", "hdfc", &paymentgateway.HDFCAdapter{}),
			Entry("sbi", "sbi", &paymentgateway.SBIAdapter{}),
			Entry("axis", "axis", &paymentgateway.AxisAdapter{}),
			Entry("mixed case", " Axis ", &paymentgateway.AxisAdapter{}),
		)

		DescribeTable("rejects providers it cannot serve live",
			func(provider string) {
				adapter, err := factory.Adapter(liveConfig(paymentgatewaytypes.Provider(provider), "secret"))

				Expect(adapter).To(BeNil())
				Expect(errors.Is(err, paymentgateway.ErrUnknownProvider)).To(BeTrue())

				var cfgErr *paymentgateway.ConfigurationError
				Expect(errors.As(err, &cfgErr)).To(BeTrue())
				Expect(cfgErr.Field).To(Equal("provider"))
			},
			Entry("unknown", "paytm"),
			Entry("empty", ""),
			Entry("simulation", "simulation"),
		)

		It("returns a nil adapter when credentials are missing", func() {
			adapter, err := factory.Adapter(liveConfig(paymentgatewaytypes.ProviderICICI, ""))
			Expect(err).To(HaveOccurred())
			Expect(adapter).To(BeNil())
		})
	})
})

var _ = Describe("ParseCallback", func() {
	It("decodes provider fields into the typed callback", func() {
		cb, err := paymentgateway.ParseCallback(paymentgatewaytypes.ProviderAxis, paymentgatewaytypes.CallbackPayload{
			"MerchantId": "M123", "OrderId": "ORD-1", "TransactionId": "TXN-1",
			"BankReference": "BR-1", "Amount": "499.00", "Status": "TXN_SUCCESS", "Hash": "ABC",
		})
		Expect(err).ToNot(HaveOccurred())

		axis, ok := cb.(*paymentgateway.AxisCallback)
		Expect(ok).To(BeTrue())
		Expect(axis.OrderID).To(Equal("ORD-1"))
		Expect(axis.Hash).To(Equal("ABC"))
	})

	It("matches field names exactly", func() {
		_, err := paymentgateway.ParseCallback(paymentgatewaytypes.ProviderAxis, paymentgatewaytypes.CallbackPayload{
			"merchantid": "M123", "orderid": "ORD-1", "transactionid": "TXN-1",
			"bankreference": "BR-1", "amount": "499.00", "status": "TXN_SUCCESS", "hash": "ABC",
		})

		var failure *paymentgateway.VerificationError
		Expect(errors.As(err, &failure)).To(BeTrue())
		Expect(failure.Reason).To(Equal(paymentgatewaytypes.ReasonMissingField))
	})

	It("rejects unknown providers", func() {
		_, err := paymentgateway.ParseCallback("paytm", paymentgatewaytypes.CallbackPayload{})
		Expect(errors.Is(err, paymentgateway.ErrUnknownProvider)).To(BeTrue())
	})
})
