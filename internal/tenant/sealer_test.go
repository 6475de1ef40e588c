package tenant_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/feegateway/internal/tenant"
)

var _ = Describe("Sealer", func() {
	var sealer *tenant.Sealer

	BeforeEach(func() {
		var err error
		sealer, err = tenant.NewSealer("settings-key-for-tests")
		Expect(err).NotTo(HaveOccurred())
	})

	It("should refuse an empty settings key", func() {
		_, err := tenant.NewSealer("")
		Expect(err).To(MatchError(tenant.ErrEmptySettingsKey))
	})

	It("should round trip a secret", func() {
		// When
		sealed, err := sealer.Seal(1, "gateway-secret")
		Expect(err).NotTo(HaveOccurred())
		opened, err := sealer.Open(1, sealed)

		// Then
		Expect(err).NotTo(HaveOccurred())
		Expect(opened).To(Equal("gateway-secret"))
		Expect(sealed).NotTo(ContainSubstring("gateway-secret"))
	})

	It("should use a fresh nonce every time", func() {
		first, err := sealer.Seal(1, "gateway-secret")
		Expect(err).NotTo(HaveOccurred())
		second, err := sealer.Seal(1, "gateway-secret")
		Expect(err).NotTo(HaveOccurred())
		Expect(first).NotTo(Equal(second))
	})

	It("should not open a value sealed for another tenant", func() {
		// Given
		sealed, err := sealer.Seal(1, "gateway-secret")
		Expect(err).NotTo(HaveOccurred())

		// When
		_, err = sealer.Open(2, sealed)

		// Then
		Expect(err).To(MatchError(tenant.ErrSealedValue))
	})

	It("should not open with a different settings key", func() {
		// Given
		sealed, err := sealer.Seal(1, "gateway-secret")
		Expect(err).NotTo(HaveOccurred())
		other, err := tenant.NewSealer("another-key")
		Expect(err).NotTo(HaveOccurred())

		// When
		_, err = other.Open(1, sealed)

		// Then
		Expect(err).To(MatchError(tenant.ErrSealedValue))
	})

	DescribeTable("should reject malformed sealed values",
		func(sealed string) {
			_, err := sealer.Open(1, sealed)
			Expect(err).To(MatchError(tenant.ErrSealedValue))
		},
		Entry("empty", ""),
		Entry("not base64", "!!!"),
		Entry("too short", "AAAA"),
	)
})
